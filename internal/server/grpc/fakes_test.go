package grpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/services"
)

// fakeAccounts is a minimal in-memory AccountService.
type fakeAccounts struct {
	mu       sync.Mutex
	byID     map[string]*models.Account
	password map[string]string
	codes    map[string]string
	failWith error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byID:     map[string]*models.Account{},
		password: map[string]string{},
		codes:    map[string]string{},
	}
}

func (f *fakeAccounts) CreateAccount(ctx context.Context, email, password string, role models.Role) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, a := range f.byID {
		if a.Email == email {
			return nil, common.ErrDuplicateEmail
		}
	}
	a := &models.Account{ID: fmt.Sprintf("id-%d", len(f.byID)+1), Email: email, Role: role}
	f.byID[a.ID] = a
	f.password[a.ID] = password
	f.codes["code-"+a.ID] = a.ID
	return a, nil
}

func (f *fakeAccounts) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.byID {
		if a.Email == email {
			if f.password[id] != password {
				return "", common.ErrInvalidCredentials
			}
			return "token-for-" + id, nil
		}
	}
	return "", common.ErrAccountNotFound
}

func (f *fakeAccounts) VerifyEmail(ctx context.Context, code string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.codes[code]
	if !ok {
		return nil, common.ErrCodeNotFound
	}
	delete(f.codes, code)
	f.byID[id].Verified = true
	c := *f.byID[id]
	return &c, nil
}

func (f *fakeAccounts) EditProfile(ctx context.Context, accountID string, in services.EditProfileInput) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[accountID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	if in.Email != nil && *in.Email != a.Email {
		a.Email = *in.Email
		a.Verified = false
	}
	if in.Password != nil {
		f.password[accountID] = *in.Password
	}
	c := *a
	return &c, nil
}

func (f *fakeAccounts) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[accountID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

// prefixTokens accepts "token-for-<id>".
type prefixTokens struct{}

func (prefixTokens) Validate(token string) (string, error) {
	const prefix = "token-for-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", common.ErrInvalidToken
	}
	return token[len(prefix):], nil
}
