package domain

import "strings"

// ChatMessage is one message of a client/staff conversation.
type ChatMessage struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"client_id"`
	EmployeID   *int64    `json:"employe_id,omitempty"`
	Message     string    `json:"message"`
	EmeteurType Role      `json:"emeteur_type"`
	EmeteurID   int64     `json:"emeteur_id"`
	EstLu       bool      `json:"est_lu"`
	Sender      *User     `json:"sender,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// SenderName returns the display name of the sender.
func (m ChatMessage) SenderName() string {
	if m.Sender != nil && m.Sender.NomComplet != "" {
		return m.Sender.NomComplet
	}
	switch m.EmeteurType {
	case RoleClient:
		return "Client"
	case RoleEmploye:
		return "Employé"
	case RoleAdmin:
		return "Administrateur"
	default:
		return string(m.EmeteurType)
	}
}

// SenderInitials returns the upper-case initials of the sender name, or the
// first letter of the sender role when the name is unknown.
func (m ChatMessage) SenderInitials() string {
	if m.Sender != nil && m.Sender.NomComplet != "" {
		var b strings.Builder
		for _, part := range strings.Fields(m.Sender.NomComplet) {
			b.WriteString(strings.ToUpper(string([]rune(part)[0])))
		}
		return b.String()
	}
	if m.EmeteurType == "" {
		return ""
	}
	return string(m.EmeteurType)[:1]
}

// Conversation summarises the messages exchanged with one client.
type Conversation struct {
	ClientID    int64        `json:"client_id"`
	EmployeID   *int64       `json:"employe_id,omitempty"`
	Client      *User        `json:"client,omitempty"`
	Employe     *User        `json:"employe,omitempty"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

// SendMessageInput is the payload of a message sent by a client.
type SendMessageInput struct {
	ClientID    int64  `json:"client_id" validate:"required"`
	EmployeID   *int64 `json:"employe_id,omitempty"`
	Message     string `json:"message" validate:"required,max=2000"`
	EmeteurType Role   `json:"emeteur_type" validate:"required"`
	EmeteurID   int64  `json:"emeteur_id" validate:"required"`
}

// ReplyInput is the payload of a staff reply to a client.
type ReplyInput struct {
	ClientID int64  `json:"client_id" validate:"required"`
	Message  string `json:"message" validate:"required,max=2000"`
}

// AssignInput assigns an employee to a client's conversation.
type AssignInput struct {
	ClientID  int64 `json:"client_id" validate:"required"`
	EmployeID int64 `json:"employe_id" validate:"required"`
}

// UnreadCount is the body of GET /chat/unread-count.
type UnreadCount struct {
	Count int `json:"unread_count"`
}
