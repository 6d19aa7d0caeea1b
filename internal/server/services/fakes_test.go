package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/dbx"
	"github.com/dmitrijs2005/eatsauth/internal/logging"
	"github.com/dmitrijs2005/eatsauth/internal/server/auth"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/dmitrijs2005/eatsauth/internal/server/passwords"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/verifications"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory store shared by the fake repositories ---

type memStore struct {
	mu            sync.Mutex
	seq           int
	accounts      map[string]*models.Account
	verifications map[string]*models.Verification

	createAccountErr error
	updateErr        error
	getErr           error
	createVerErr     error
	deleteVerErr     error

	// one-shot hooks that let a test run another operation at a fixed
	// point of an in-flight transaction
	beforeLockAccount func()
	afterFindByCode   func()
}

// takeHook clears *h under the store lock and returns its previous value.
func (m *memStore) takeHook(h *func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn := *h
	*h = nil
	return fn
}

func newMemStore() *memStore {
	return &memStore{
		accounts:      map[string]*models.Account{},
		verifications: map[string]*models.Verification{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) verificationsFor(accountID string) []*models.Verification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Verification
	for _, v := range m.verifications {
		if v.AccountID == accountID {
			c := *v
			out = append(out, &c)
		}
	}
	return out
}

func (m *memStore) account(id string) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	c := *a
	return &c
}

type memAccounts struct{ s *memStore }

func (r memAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createAccountErr != nil {
		return nil, r.s.createAccountErr
	}
	for _, existing := range r.s.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *a
	c.ID = r.s.nextID("acc")
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.accounts[c.ID] = &c
	out := c
	return &out, nil
}

func (r memAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

// GetByIDForUpdate runs beforeLockAccount first, standing in for a writer
// that committed just before the row lock was granted.
func (r memAccounts) GetByIDForUpdate(ctx context.Context, id string) (*models.Account, error) {
	if hook := r.s.takeHook(&r.s.beforeLockAccount); hook != nil {
		hook()
	}
	return r.GetByID(ctx, id)
}

func (r memAccounts) MarkVerified(ctx context.Context, id string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return nil, r.s.updateErr
	}
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a.Verified = true
	a.UpdatedAt = time.Now()
	c := *a
	return &c, nil
}

func (r memAccounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.getErr != nil {
		return nil, r.s.getErr
	}
	for _, a := range r.s.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) Update(ctx context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.updateErr != nil {
		return r.s.updateErr
	}
	if _, ok := r.s.accounts[a.ID]; !ok {
		return common.ErrorNotFound
	}
	for id, existing := range r.s.accounts {
		if id != a.ID && existing.Email == a.Email {
			return common.ErrorAlreadyExists
		}
	}
	c := *a
	c.UpdatedAt = time.Now()
	r.s.accounts[a.ID] = &c
	return nil
}

type memVerifications struct{ s *memStore }

func (r memVerifications) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createVerErr != nil {
		return nil, r.s.createVerErr
	}
	for _, existing := range r.s.verifications {
		if existing.AccountID == v.AccountID || existing.Code == v.Code {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *v
	c.ID = r.s.nextID("ver")
	c.CreatedAt = time.Now()
	r.s.verifications[c.ID] = &c
	out := c
	return &out, nil
}

func (r memVerifications) DeleteByAccountID(ctx context.Context, accountID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, v := range r.s.verifications {
		if v.AccountID == accountID {
			delete(r.s.verifications, id)
		}
	}
	return nil
}

func (r memVerifications) FindByCode(ctx context.Context, code string) (*models.Verification, error) {
	v, err := r.findByCode(code)
	if err == nil {
		if hook := r.s.takeHook(&r.s.afterFindByCode); hook != nil {
			hook()
		}
	}
	return v, err
}

func (r memVerifications) findByCode(code string) (*models.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.verifications {
		if v.Code == code {
			c := *v
			if a, ok := r.s.accounts[v.AccountID]; ok {
				ac := *a
				c.Account = &ac
			}
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memVerifications) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.deleteVerErr != nil {
		return r.s.deleteVerErr
	}
	if _, ok := r.s.verifications[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.verifications, id)
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository    { return memAccounts{m.s} }
func (m *fakeRepoManager) Verifications(db dbx.DBTX) verifications.Repository {
	return memVerifications{m.s}
}

// --- collaborators ---

type sentMail struct{ address, code string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *fakeNotifier) NotifyVerification(ctx context.Context, address, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{address, code})
}

func (n *fakeNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMail{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type failingHasher struct{ err error }

func (h failingHasher) Hash(string) (string, error)         { return "", h.err }
func (h failingHasher) Verify(string, string) (bool, error) { return false, h.err }

// --- fixture ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	notifier *fakeNotifier
	tokens   *auth.TokenService
	ver      *VerificationService
	svc      *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hasher, err := passwords.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("k")})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	notifier := &fakeNotifier{}
	ver := NewVerificationService(db, rm, logging.Nop())
	svc := NewAccountService(db, rm, ver, hasher, tokens, notifier, logging.Nop())

	return &fixture{db: db, mock: mock, store: store, notifier: notifier, tokens: tokens, ver: ver, svc: svc}
}

// expectTx queues a committed transaction.
func (f *fixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

// expectFailedTx queues a rolled back transaction.
func (f *fixture) expectFailedTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func (f *fixture) createAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	f.expectTx()
	a, err := f.svc.CreateAccount(context.Background(), email, password, models.RoleClient)
	if err != nil {
		t.Fatalf("CreateAccount(%s): %v", email, err)
	}
	return a
}

func strPtr(s string) *string { return &s }

func isBcrypt(hash string) bool { return strings.HasPrefix(hash, "$2") }
