package domain

import "github.com/shopspring/decimal"

// Payment status constants.
const (
	PaymentStatusPayee     = "payée"
	PaymentStatusNonPayee  = "non_payée"
	PaymentStatusEnAttente = "en_attente"
	PaymentStatusEchoue    = "échoué"
)

// Payment mode constants.
const (
	PaymentModeEnLigne      = "en_ligne"
	PaymentModeALaLivraison = "à_la_livraison"
)

// Payment is the payment record attached to an order.
type Payment struct {
	ID                   int64           `json:"id"`
	CommandeID           int64           `json:"commande_id"`
	Statut               string          `json:"statut"`
	ModePaiement         string          `json:"mode_paiement"`
	MontantPaye          decimal.Decimal `json:"montant_paye"`
	DatePaiement         Timestamp       `json:"date_paiement"`
	ReferenceTransaction string          `json:"reference_transaction,omitempty"`
	CreatedAt            Timestamp       `json:"created_at"`
	UpdatedAt            Timestamp       `json:"updated_at"`
}

// PaymentInput is the create/update payload for /paiements.
type PaymentInput struct {
	CommandeID           int64           `json:"commande_id" validate:"required"`
	Statut               string          `json:"statut" validate:"required,oneof=payée non_payée en_attente échoué"`
	ModePaiement         string          `json:"mode_paiement" validate:"required,oneof=en_ligne à_la_livraison"`
	MontantPaye          decimal.Decimal `json:"montant_paye" validate:"gte=0"`
	ReferenceTransaction string          `json:"reference_transaction,omitempty"`
}
