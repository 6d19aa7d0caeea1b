// Package accounts declares the server-side repository contract for account
// rows and its PostgreSQL implementation.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/eatsauth/internal/server/models"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	// Create inserts account and fills in its ID and timestamps. A duplicate
	// email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByID returns common.ErrorNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// GetByEmail returns common.ErrorNotFound when no row matches.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error)

	// MarkVerified sets the verified flag and leaves the other columns as
	// they are. Returns the updated row, or common.ErrorNotFound.
	MarkVerified(ctx context.Context, id string) (*models.Account, error)

	// Update writes the mutable fields (email, password hash, verified).
	// Missing rows yield common.ErrorNotFound, a duplicate email
	// common.ErrorAlreadyExists.
	Update(ctx context.Context, account *models.Account) error
}
