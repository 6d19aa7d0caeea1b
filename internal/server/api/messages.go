package api

import (
	"time"

	"github.com/dmitrijs2005/eatsauth/internal/server/models"
)

// Account is the wire view of an account. The password hash never leaves
// the server.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromModel converts a stored account to its wire form.
func AccountFromModel(a *models.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:        a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type CreateAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type CreateAccountResponse struct {
	Account *Account `json:"account"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}

type VerifyEmailResponse struct {
	Account *Account `json:"account"`
}

// EditProfileRequest leaves a field unchanged when it is omitted.
type EditProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type EditProfileResponse struct {
	Account *Account `json:"account"`
}

type MeRequest struct{}

type MeResponse struct {
	Account *Account `json:"account"`
}
