package domain

import (
	"github.com/shopspring/decimal"
)

// Stock status values computed by the API.
const (
	StockCritique = "critique"
	StockFaible   = "faible"
	StockMoyen    = "moyen"
	StockBon      = "bon"
)

// ValidStockStatuses returns all stock status values.
func ValidStockStatuses() []string {
	return []string{StockCritique, StockFaible, StockMoyen, StockBon}
}

// Category groups products.
type Category struct {
	ID          int64     `json:"id"`
	Nom         string    `json:"nom"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// CategoryInput is the create/update payload for /categories.
type CategoryInput struct {
	Nom         string `json:"nom" validate:"required,min=2"`
	Description string `json:"description,omitempty"`
}

// Product is a catalog entry. Snapshots of it are stored in the cart.
type Product struct {
	ID                int64           `json:"id"`
	Nom               string          `json:"nom"`
	Description       string          `json:"description,omitempty"`
	Stock             int             `json:"stock"`
	Prix              decimal.Decimal `json:"prix"`
	Image             string          `json:"image,omitempty"`
	CategorieID       int64           `json:"categorie_id,omitempty"`
	Categorie         *Category       `json:"categorie,omitempty"`
	Promotions        []Promotion     `json:"promotions,omitempty"`
	StockStatus       string          `json:"stock_status,omitempty"`
	StockAlertMessage string          `json:"stock_alert_message,omitempty"`
	NeedRestocking    bool            `json:"need_restocking,omitempty"`
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	out := p
	if p.Categorie != nil {
		c := *p.Categorie
		out.Categorie = &c
	}
	if p.Promotions != nil {
		out.Promotions = make([]Promotion, len(p.Promotions))
		for i, promo := range p.Promotions {
			out.Promotions[i] = promo.Clone()
		}
	}
	return out
}

// ProductInput is the multipart create/update payload for /produits.
// ImagePath, when set, is uploaded as the "image" file part.
type ProductInput struct {
	Nom         string          `json:"nom" validate:"required,min=2"`
	Description string          `json:"description"`
	Prix        decimal.Decimal `json:"prix" validate:"gte=0.01"`
	Stock       int             `json:"stock" validate:"min=0"`
	CategorieID int64           `json:"categorie_id" validate:"required"`
	ImagePath   string          `json:"-"`
}

// RestockInput is the POST /produits/:id/restock payload.
type RestockInput struct {
	Quantite int `json:"quantite" validate:"gt=0"`
}

// StockStatistics is the aggregate returned by /produits/stock-statistics.
// Its keys are defined by the API and rendered as-is.
type StockStatistics map[string]any
