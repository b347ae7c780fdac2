package models

// User est l'administrateur de la boutique (seul compte authentifié).
type User struct {
	ID       string `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     string `json:"role,omitempty"`
}
