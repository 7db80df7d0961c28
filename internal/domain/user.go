package domain

// Role is the authorization role carried by an authenticated user.
type Role string

// Roles recognised by the API.
const (
	RoleAdmin   Role = "ADMIN"
	RoleEmploye Role = "EMPLOYE"
	RoleClient  Role = "CLIENT"
)

// ValidRoles returns all valid roles.
func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleEmploye, RoleClient}
}

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles() {
		if v == r {
			return true
		}
	}
	return false
}

// Staff reports whether the role belongs to the back office (ADMIN or EMPLOYE).
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleEmploye
}

// User is the authenticated identity returned by GET /user, and the shape
// of the entries returned by /users.
type User struct {
	ID         int64     `json:"id"`
	NomComplet string    `json:"nomComplet"`
	Email      string    `json:"email"`
	Telephone  string    `json:"telephone,omitempty"`
	Adresse    string    `json:"adresse,omitempty"`
	Role       Role      `json:"role"`
	CreatedAt  Timestamp `json:"created_at"`
}

// UserInput is the create/update payload for /users.
type UserInput struct {
	NomComplet string `json:"nomComplet" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password,omitempty" validate:"omitempty,min=6"`
	Telephone  string `json:"telephone,omitempty"`
	Adresse    string `json:"adresse,omitempty"`
	Role       Role   `json:"role" validate:"required,oneof=ADMIN EMPLOYE CLIENT"`
}

// Credentials is the POST /login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the POST /register payload. New accounts are CLIENT accounts.
type Registration struct {
	NomComplet           string `json:"nomComplet" validate:"required,min=2"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Telephone            string `json:"telephone,omitempty"`
	Adresse              string `json:"adresse,omitempty"`
}

// TokenResponse is the body returned by /login and /register.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
	User        *User  `json:"user,omitempty"`
}
