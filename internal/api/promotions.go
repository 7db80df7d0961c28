package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

const promotionsResource = "promotions"

// PromotionsClient is the CRUD client for /promotions plus product links.
type PromotionsClient struct {
	*Resource[domain.Promotion, domain.PromotionInput]
	client *Client
}

// NewPromotionsClient creates a PromotionsClient.
func NewPromotionsClient(client *Client) *PromotionsClient {
	res := NewResource[domain.Promotion, domain.PromotionInput](client, "/promotions", promotionsResource).
		withCheck(func(in domain.PromotionInput) error {
			if !in.DatesOrdered() {
				return apperrors.Validation("dateFin must not be before dateDebut",
					map[string]string{"dateFin": "must not be before dateDebut"})
			}
			return nil
		})
	return &PromotionsClient{Resource: res, client: client}
}

// AttachProduct links a product to the promotion.
func (p *PromotionsClient) AttachProduct(ctx context.Context, promoID int64, in domain.AttachProductInput) (*domain.PromotionProduct, error) {
	if err := validator.Validate(in); err != nil {
		return nil, fmt.Errorf("validate %s: %w", promotionsResource, err)
	}
	req, err := jsonRequest(http.MethodPost, idPath("/promotions", promoID)+"/produits", promotionsResource, in)
	if err != nil {
		return nil, err
	}
	var link domain.PromotionProduct
	if err := p.client.do(ctx, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// DetachProduct removes a product from the promotion.
func (p *PromotionsClient) DetachProduct(ctx context.Context, promoID, productID int64) error {
	path := idPath("/promotions", promoID) + "/produits/" + strconv.FormatInt(productID, 10)
	return p.client.do(ctx, request{method: http.MethodDelete, path: path, resource: promotionsResource}, nil)
}
