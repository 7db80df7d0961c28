package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/validator"
)

const (
	productsPath       = "/produits"
	clientProductsPath = "/produitsClient"
	productsResource   = "produits"
)

// ProductsClient calls the product endpoints. Staff see the full catalog at
// /produits; clients browse /produitsClient.
type ProductsClient struct {
	client *Client
}

// NewProductsClient creates a ProductsClient.
func NewProductsClient(client *Client) *ProductsClient {
	return &ProductsClient{client: client}
}

// List returns the full catalog (admin view).
func (p *ProductsClient) List(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, productsPath)
}

// ListForClient returns the public catalog.
func (p *ProductsClient) ListForClient(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, clientProductsPath)
}

// ListForRole picks the admin catalog for ADMIN and the public one otherwise.
func (p *ProductsClient) ListForRole(ctx context.Context, role domain.Role) ([]domain.Product, error) {
	if role == domain.RoleAdmin {
		return p.List(ctx)
	}
	return p.ListForClient(ctx)
}

// LowStock returns products that need restocking.
func (p *ProductsClient) LowStock(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, productsPath+"/low-stock")
}

func (p *ProductsClient) list(ctx context.Context, path string) ([]domain.Product, error) {
	var items []domain.Product
	if err := p.client.do(ctx, request{method: http.MethodGet, path: path, resource: productsResource}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one product.
func (p *ProductsClient) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var item domain.Product
	if err := p.client.do(ctx, request{method: http.MethodGet, path: idPath(productsPath, id), resource: productsResource}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// StockStatistics returns the stock aggregate computed by the API.
func (p *ProductsClient) StockStatistics(ctx context.Context) (domain.StockStatistics, error) {
	stats := domain.StockStatistics{}
	if err := p.client.do(ctx, request{method: http.MethodGet, path: productsPath + "/stock-statistics", resource: productsResource}, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Create uploads a new product as a multipart form.
func (p *ProductsClient) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return p.send(ctx, productsPath, nil, in)
}

// Update replaces a product. The API only parses multipart bodies on POST,
// so the update is a POST with _method=PUT.
func (p *ProductsClient) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	return p.send(ctx, idPath(productsPath, id), url.Values{"_method": {"PUT"}}, in)
}

func (p *ProductsClient) send(ctx context.Context, path string, query url.Values, in domain.ProductInput) (*domain.Product, error) {
	if err := validator.Validate(in); err != nil {
		return nil, fmt.Errorf("validate %s: %w", productsResource, err)
	}
	body, contentType, err := productForm(in)
	if err != nil {
		return nil, err
	}
	var item domain.Product
	req := request{
		method:      http.MethodPost,
		path:        path,
		query:       query,
		body:        body,
		contentType: contentType,
		resource:    productsResource,
	}
	if err := p.client.do(ctx, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes a product.
func (p *ProductsClient) Delete(ctx context.Context, id int64) error {
	return p.client.do(ctx, request{method: http.MethodDelete, path: idPath(productsPath, id), resource: productsResource}, nil)
}

// Restock adds quantite units to the product stock.
func (p *ProductsClient) Restock(ctx context.Context, id int64, quantite int) error {
	in := domain.RestockInput{Quantite: quantite}
	if err := validator.Validate(in); err != nil {
		return fmt.Errorf("validate restock: %w", err)
	}
	req, err := jsonRequest(http.MethodPost, idPath(productsPath, id)+"/restock", productsResource, in)
	if err != nil {
		return err
	}
	return p.client.do(ctx, req, nil)
}

// productForm encodes in as multipart/form-data with an optional image part.
func productForm(in domain.ProductInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"nom", in.Nom},
		{"description", in.Description},
		{"prix", in.Prix.String()},
		{"stock", strconv.Itoa(in.Stock)},
		{"categorie_id", strconv.FormatInt(in.CategorieID, 10)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f.name, err)
		}
	}

	if in.ImagePath != "" {
		f, err := os.Open(in.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("open product image: %w", err)
		}
		defer f.Close()

		part, err := w.CreateFormFile("image", filepath.Base(in.ImagePath))
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy product image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
