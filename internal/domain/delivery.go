package domain

// Delivery status constants.
const (
	DeliveryStatusEnAttente = "en_attente"
	DeliveryStatusEnCours   = "en_cours"
	DeliveryStatusLivree    = "livrée"
	DeliveryStatusEchouee   = "échouée"
)

// Delivery tracks the shipment of an order (livraison).
type Delivery struct {
	ID            int64     `json:"id"`
	CommandeID    int64     `json:"commande_id"`
	Adresse       string    `json:"adresse,omitempty"`
	Statut        string    `json:"statut"`
	EmployeID     *int64    `json:"employe_id,omitempty"`
	DateLivraison Timestamp `json:"date_livraison"`
	CreatedAt     Timestamp `json:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at"`
}

// DeliveryInput is the create/update payload for /livraisons.
type DeliveryInput struct {
	CommandeID    int64  `json:"commande_id" validate:"required"`
	Adresse       string `json:"adresse" validate:"required"`
	Statut        string `json:"statut" validate:"required,oneof=en_attente en_cours livrée échouée"`
	EmployeID     *int64 `json:"employe_id,omitempty"`
	DateLivraison string `json:"date_livraison,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
