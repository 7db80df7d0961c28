package domain

import "github.com/shopspring/decimal"

// Promotion is a time-boxed discount applied to a set of products.
type Promotion struct {
	ID          int64           `json:"id"`
	Nom         string          `json:"nom"`
	Description string          `json:"description,omitempty"`
	Reduction   decimal.Decimal `json:"reduction"`
	DateDebut   Timestamp       `json:"dateDebut"`
	DateFin     Timestamp       `json:"dateFin"`
	Actif       bool            `json:"actif"`
	Produits    []Product       `json:"produits,omitempty"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}

// Clone returns a deep copy of p.
func (p Promotion) Clone() Promotion {
	out := p
	if p.Produits != nil {
		out.Produits = make([]Product, len(p.Produits))
		for i, prod := range p.Produits {
			out.Produits[i] = prod.Clone()
		}
	}
	return out
}

// PromotionInput is the create/update payload for /promotions. Dates use
// the YYYY-MM-DD form the API expects.
type PromotionInput struct {
	Nom         string          `json:"nom" validate:"required,min=2"`
	Description string          `json:"description,omitempty"`
	Reduction   decimal.Decimal `json:"reduction" validate:"gt=0,lte=100"`
	DateDebut   string          `json:"dateDebut" validate:"required,datetime=2006-01-02"`
	DateFin     string          `json:"dateFin" validate:"required,datetime=2006-01-02"`
	Actif       bool            `json:"actif"`
}

// PromotionProduct links a product to a promotion.
type PromotionProduct struct {
	ID               int64            `json:"id"`
	PromoID          int64            `json:"promo_id"`
	ProduitID        int64            `json:"produit_id"`
	MontantReduction *decimal.Decimal `json:"montant_reduction,omitempty"`
	Promotion        *Promotion       `json:"promotion,omitempty"`
	Produit          *Product         `json:"produit,omitempty"`
}

// AttachProductInput is the payload that links a product to a promotion.
type AttachProductInput struct {
	ProduitID        int64            `json:"produit_id" validate:"required"`
	MontantReduction *decimal.Decimal `json:"montant_reduction,omitempty"`
}

// DatesOrdered reports whether DateFin is not before DateDebut. Both dates
// must already be valid YYYY-MM-DD strings, which compare lexically.
func (in PromotionInput) DatesOrdered() bool {
	return in.DateFin >= in.DateDebut
}
