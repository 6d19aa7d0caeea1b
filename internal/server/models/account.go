// Package models holds the in-process representations of persisted rows.
package models

import (
	"fmt"
	"time"
)

// Role is the kind of account. It is set at creation and never changes.
type Role string

const (
	RoleOwner    Role = "Owner"
	RoleClient   Role = "Client"
	RoleDelivery Role = "Delivery"
)

// ParseRole maps a wire value to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleClient, RoleDelivery:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Account is a user's identity record. PasswordHash never holds plaintext.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
