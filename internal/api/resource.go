package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/storefront/pkg/validator"
)

// Resource is a CRUD client for one collection of the API. Inputs are
// validated before anything is sent.
type Resource[T any, In any] struct {
	client *Client
	path   string
	name   string
	check  func(In) error
}

// NewResource creates a CRUD client for the collection at path.
func NewResource[T any, In any](client *Client, path, name string) *Resource[T, In] {
	return &Resource[T, In]{client: client, path: path, name: name}
}

// withCheck adds a cross-field check run after tag validation.
func (r *Resource[T, In]) withCheck(fn func(In) error) *Resource[T, In] {
	r.check = fn
	return r
}

func (r *Resource[T, In]) validate(in In) error {
	if err := validator.Validate(in); err != nil {
		return fmt.Errorf("validate %s: %w", r.name, err)
	}
	if r.check != nil {
		if err := r.check(in); err != nil {
			return fmt.Errorf("validate %s: %w", r.name, err)
		}
	}
	return nil
}

// List returns every item of the collection.
func (r *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.do(ctx, request{method: http.MethodGet, path: r.path, resource: r.name}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns the item with the given id.
func (r *Resource[T, In]) Get(ctx context.Context, id int64) (*T, error) {
	var item T
	if err := r.client.do(ctx, request{method: http.MethodGet, path: idPath(r.path, id), resource: r.name}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create validates in and posts it to the collection.
func (r *Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	if err := r.validate(in); err != nil {
		return nil, err
	}
	req, err := jsonRequest(http.MethodPost, r.path, r.name, in)
	if err != nil {
		return nil, err
	}
	var item T
	if err := r.client.do(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update validates in and replaces the item with the given id.
func (r *Resource[T, In]) Update(ctx context.Context, id int64, in In) (*T, error) {
	if err := r.validate(in); err != nil {
		return nil, err
	}
	req, err := jsonRequest(http.MethodPut, idPath(r.path, id), r.name, in)
	if err != nil {
		return nil, err
	}
	var item T
	if err := r.client.do(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the item with the given id.
func (r *Resource[T, In]) Delete(ctx context.Context, id int64) error {
	return r.client.do(ctx, request{method: http.MethodDelete, path: idPath(r.path, id), resource: r.name}, nil)
}
