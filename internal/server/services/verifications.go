package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/dbx"
	"github.com/dmitrijs2005/eatsauth/internal/logging"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// VerificationService owns the lifecycle of one-time email verification
// codes: at most one live code per account, consumed exactly once.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	newCode     func() string
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		log:         log.With("module", "verifications"),
		newCode:     uuid.NewString,
	}
}

// IssueFor replaces the account's verification with a fresh one.
func (s *VerificationService) IssueFor(ctx context.Context, account *models.Account) (*models.Verification, error) {
	var v *models.Verification
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		v, err = s.issueFor(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, opaque(ctx, s.log, "issue verification", err)
	}
	return v, nil
}

// issueFor deletes then creates within the caller's transaction.
func (s *VerificationService) issueFor(ctx context.Context, tx dbx.DBTX, account *models.Account) (*models.Verification, error) {
	repo := s.repomanager.Verifications(tx)
	if err := repo.DeleteByAccountID(ctx, account.ID); err != nil {
		return nil, err
	}
	return repo.Create(ctx, &models.Verification{Code: s.newCode(), AccountID: account.ID})
}

// Consume marks the code's owner verified and deletes the code. Unknown or
// already consumed codes yield common.ErrCodeNotFound.
func (s *VerificationService) Consume(ctx context.Context, code string) (*models.Account, error) {
	var account *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		verifications := s.repomanager.Verifications(tx)
		accounts := s.repomanager.Accounts(tx)

		v, err := verifications.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrCodeNotFound
			}
			return err
		}

		// only the flag is written; the row may have changed since the join
		account, err = accounts.MarkVerified(ctx, v.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrCodeNotFound
			}
			return err
		}

		if err := verifications.Delete(ctx, v.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrCodeNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, opaque(ctx, s.log, "consume verification", err)
	}

	s.log.Info(ctx, "email verified", common.AccountIDLogKey, account.ID)
	return account, nil
}
