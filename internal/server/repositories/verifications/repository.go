// Package verifications declares the repository contract for one-time email
// verification records and its PostgreSQL implementation.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/eatsauth/internal/server/models"
)

// Repository defines operations for issuing, looking up and consuming
// verification records.
type Repository interface {
	// Create inserts v and fills in its ID and CreatedAt. A second record for
	// the same account or a colliding code yields common.ErrorAlreadyExists.
	Create(ctx context.Context, v *models.Verification) (*models.Verification, error)

	// DeleteByAccountID removes the account's record if there is one.
	DeleteByAccountID(ctx context.Context, accountID string) error

	// FindByCode loads the record together with its owning account.
	// Returns common.ErrorNotFound when the code is unknown.
	FindByCode(ctx context.Context, code string) (*models.Verification, error)

	// Delete removes a record by id. Returns common.ErrorNotFound when
	// nothing was deleted.
	Delete(ctx context.Context, id string) error
}
