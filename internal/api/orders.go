package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/validator"
)

const (
	ordersPath     = "/commandes"
	ordersResource = "commandes"
)

// OrdersClient calls the order endpoints.
type OrdersClient struct {
	client *Client
}

// NewOrdersClient creates an OrdersClient.
func NewOrdersClient(client *Client) *OrdersClient {
	return &OrdersClient{client: client}
}

// List returns every order (staff view).
func (o *OrdersClient) List(ctx context.Context) ([]domain.Order, error) {
	return o.list(ctx, ordersPath)
}

// ListMine returns the orders of the authenticated client.
func (o *OrdersClient) ListMine(ctx context.Context) ([]domain.Order, error) {
	return o.list(ctx, ordersPath+"/client")
}

func (o *OrdersClient) list(ctx context.Context, path string) ([]domain.Order, error) {
	var items []domain.Order
	if err := o.client.do(ctx, request{method: http.MethodGet, path: path, resource: ordersResource}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one order with its lines, payment and delivery.
func (o *OrdersClient) Get(ctx context.Context, id int64) (*domain.Order, error) {
	var item domain.Order
	if err := o.client.do(ctx, request{method: http.MethodGet, path: idPath(ordersPath, id), resource: ordersResource}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create places a new order.
func (o *OrdersClient) Create(ctx context.Context, in domain.OrderInput) (*domain.Order, error) {
	if err := validator.Validate(in); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ordersResource, err)
	}
	req, err := jsonRequest(http.MethodPost, ordersPath, ordersResource, in)
	if err != nil {
		return nil, err
	}
	var item domain.Order
	if err := o.client.do(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStatus moves an order to a new status.
func (o *OrdersClient) UpdateStatus(ctx context.Context, id int64, in domain.OrderStatusInput) (*domain.Order, error) {
	if err := validator.Validate(in); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ordersResource, err)
	}
	req, err := jsonRequest(http.MethodPut, idPath(ordersPath, id), ordersResource, in)
	if err != nil {
		return nil, err
	}
	var item domain.Order
	if err := o.client.do(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an order.
func (o *OrdersClient) Delete(ctx context.Context, id int64) error {
	return o.client.do(ctx, request{method: http.MethodDelete, path: idPath(ordersPath, id), resource: ordersResource}, nil)
}
