// Package services contains server-side business logic. AccountService runs
// the account lifecycle (registration, login, profile edits and email
// verification) on top of the repositories, the password codec and the
// token service.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/dbx"
	"github.com/dmitrijs2005/eatsauth/internal/logging"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/passwords"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/repomanager"
)

// TokenIssuer mints a token for an account id.
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

// VerificationNotifier delivers verification codes out of band. It must
// not block the caller.
type VerificationNotifier interface {
	NotifyVerification(ctx context.Context, address, code string)
}

// EditProfileInput carries optional profile changes. Nil fields are left
// untouched.
type EditProfileInput struct {
	Email    *string
	Password *string
}

type AccountService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	verifications *VerificationService
	hasher        passwords.Hasher
	tokens        TokenIssuer
	notifier      VerificationNotifier
	log           logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, verifications *VerificationService,
	hasher passwords.Hasher, tokens TokenIssuer, notifier VerificationNotifier, log logging.Logger) *AccountService {
	return &AccountService{
		db:            db,
		repomanager:   m,
		verifications: verifications,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		log:           log.With("module", "accounts"),
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", common.ErrValidation, email)
	}
	return email, nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, maxPasswordBytes)
	}
	return nil
}

// CreateAccount registers an unverified account and issues its first
// verification code. The code is mailed after the transaction commits.
func (s *AccountService) CreateAccount(ctx context.Context, email, password string, role models.Role) (*models.Account, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, opaque(ctx, s.log, "create account", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, opaque(ctx, s.log, "create account", err)
	}

	account := &models.Account{Email: email, PasswordHash: hash, Role: role}
	var v *models.Verification
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Accounts(tx).Create(ctx, account)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrDuplicateEmail
			}
			return err
		}
		account = created

		v, err = s.verifications.issueFor(ctx, tx, account)
		return err
	})
	if err != nil {
		return nil, opaque(ctx, s.log, "create account", err)
	}

	s.notifier.NotifyVerification(ctx, account.Email, v.Code)
	s.log.Info(ctx, "account created", common.AccountIDLogKey, account.ID, "role", account.Role)
	return account, nil
}

// Login checks the credentials and returns a token for the account.
// Unverified accounts may log in.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrAccountNotFound
		}
		return "", opaque(ctx, s.log, "login", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return "", opaque(ctx, s.log, "login", err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		s.log.Error(ctx, "login: token issue failed", common.AccountIDLogKey, account.ID, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Profile returns the account with the given id.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, opaque(ctx, s.log, "profile", err)
	}
	return account, nil
}

// EditProfile applies the provided changes. A new email resets the
// verified flag and replaces the verification code in the same
// transaction as the account update. The row is re-read under a lock
// inside that transaction so concurrent writers are not overwritten.
func (s *AccountService) EditProfile(ctx context.Context, accountID string, in EditProfileInput) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// the id came from a valid token
			s.log.Warn(ctx, "edit profile: authenticated account is missing", common.AccountIDLogKey, accountID)
			return nil, common.ErrAccountNotFound
		}
		return nil, opaque(ctx, s.log, "edit profile", err)
	}

	var newEmail string
	if in.Email != nil {
		email, err := validateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if email != account.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return nil, opaque(ctx, s.log, "edit profile", err)
			}
			newEmail = email
		}
	}

	var newHash string
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		newHash, err = s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, opaque(ctx, s.log, "edit profile", err)
		}
	}

	if newEmail == "" && newHash == "" {
		return account, nil
	}

	emailChanged := false
	var v *models.Verification
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		locked, err := accounts.GetByIDForUpdate(ctx, accountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrAccountNotFound
			}
			return err
		}

		if newEmail != "" && newEmail != locked.Email {
			locked.Email = newEmail
			locked.Verified = false
			emailChanged = true
		}
		if newHash != "" {
			locked.PasswordHash = newHash
		}
		account = locked
		if !emailChanged && newHash == "" {
			return nil
		}

		if err := accounts.Update(ctx, locked); err != nil {
			switch {
			case errors.Is(err, common.ErrorAlreadyExists):
				return common.ErrDuplicateEmail
			case errors.Is(err, common.ErrorNotFound):
				return common.ErrAccountNotFound
			}
			return err
		}
		if !emailChanged {
			return nil
		}
		v, err = s.verifications.issueFor(ctx, tx, locked)
		return err
	})
	if err != nil {
		return nil, opaque(ctx, s.log, "edit profile", err)
	}

	if v != nil {
		s.notifier.NotifyVerification(ctx, account.Email, v.Code)
	}
	s.log.Info(ctx, "profile updated", common.AccountIDLogKey, account.ID,
		"email_changed", emailChanged, "password_changed", newHash != "")
	return account, nil
}

// VerifyEmail consumes a verification code.
func (s *AccountService) VerifyEmail(ctx context.Context, code string) (*models.Account, error) {
	return s.verifications.Consume(ctx, code)
}

// ensureEmailFree is the fast-path duplicate check. The unique constraint
// on accounts.email remains authoritative.
func (s *AccountService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrDuplicateEmail
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}
