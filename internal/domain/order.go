package domain

import "github.com/shopspring/decimal"

// Order status constants.
const (
	OrderStatusEnPreparation = "en_préparation"
	OrderStatusPrete         = "prete"
	OrderStatusEnLivraison   = "en_livraison"
	OrderStatusLivree        = "livrée"
	OrderStatusAnnulee       = "annulée"
)

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusEnPreparation,
		OrderStatusPrete,
		OrderStatusEnLivraison,
		OrderStatusLivree,
		OrderStatusAnnulee,
	}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Order is a customer order (commande).
type Order struct {
	ID               int64           `json:"id"`
	ClientID         int64           `json:"client_id"`
	MontantTotal     decimal.Decimal `json:"montant_total"`
	Statut           string          `json:"statut"`
	CreatedAt        Timestamp       `json:"created_at"`
	UpdatedAt        Timestamp       `json:"updated_at"`
	User             *User           `json:"user,omitempty"`
	ProduitCommander []OrderLine     `json:"produit_commander,omitempty"`
	Paiement         *Payment        `json:"paiement,omitempty"`
	Livraison        *Delivery       `json:"livraison,omitempty"`
}

// OrderLine is one product of an order, priced at order time.
type OrderLine struct {
	ID           int64           `json:"id"`
	CommandeID   int64           `json:"commande_id"`
	ProduitID    int64           `json:"produit_id"`
	Quantite     int             `json:"quantite"`
	PrixU        decimal.Decimal `json:"prixU"`
	MontantTotal decimal.Decimal `json:"montant_total"`
	PromoID      *int64          `json:"promo_id,omitempty"`
	Produit      *Product        `json:"produit,omitempty"`
}

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	ProduitID int64 `json:"produit_id" validate:"required"`
	Quantite  int   `json:"quantite" validate:"gt=0"`
}

// OrderInput is the POST /commandes payload built at checkout.
type OrderInput struct {
	Produits     []OrderItemInput `json:"produits" validate:"required,min=1,dive"`
	ModePaiement string           `json:"mode_paiement" validate:"required,oneof=en_ligne à_la_livraison"`
	Adresse      string           `json:"adresse_livraison,omitempty"`
}

// OrderStatusInput is the PUT /commandes/:id payload used by staff.
type OrderStatusInput struct {
	Statut string `json:"statut" validate:"required,oneof=en_préparation prete en_livraison livrée annulée"`
}
