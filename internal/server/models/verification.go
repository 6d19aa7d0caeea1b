package models

import "time"

// Verification is a one-time code proving control of the owning account's
// current email. Consuming it deletes the row.
type Verification struct {
	ID        string
	Code      string
	AccountID string
	CreatedAt time.Time

	// Account is set when the verification is loaded together with its owner.
	Account *Account
}
