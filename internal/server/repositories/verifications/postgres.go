package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/dbx"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	query := `
		INSERT INTO verifications (code, account_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, v.Code, v.AccountID).Scan(&v.ID, &v.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	query := `
		DELETE FROM verifications
		WHERE account_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByCode locks the verification row so concurrent consumers of the
// same code serialize inside their transactions.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*models.Verification, error) {
	query := `
		SELECT v.id, v.code, v.account_id, v.created_at,
		       a.id, a.email, a.password_hash, a.role, a.verified, a.created_at, a.updated_at
		FROM verifications v
		JOIN accounts a ON a.id = v.account_id
		WHERE v.code = $1
		FOR UPDATE OF v
	`
	v := &models.Verification{Account: &models.Account{}}
	a := v.Account
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&v.ID, &v.Code, &v.AccountID, &v.CreatedAt,
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Verified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM verifications
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
