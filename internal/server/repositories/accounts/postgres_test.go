package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/dmitrijs2005/eatsauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQuery  = `(?s)^INSERT\s+INTO\s+accounts\s*\(email,\s*password_hash,\s*role,\s*verified\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	byIDQuery    = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*role,\s*verified,\s*created_at,\s*updated_at\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s*$`
	byEmailQuery = `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*role,\s*verified,\s*created_at,\s*updated_at\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1\s*$`
	lockByIDQ    = `(?s)^SELECT\s+id,\s*email,.*FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	verifyQuery  = `(?s)^UPDATE\s+accounts\s+SET\s+verified\s*=\s*true,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,\s*email,\s*password_hash,\s*role,\s*verified,\s*created_at,\s*updated_at\s*$`
	updateQuery  = `(?s)^UPDATE\s+accounts\s+SET\s+email\s*=\s*\$2,\s*password_hash\s*=\s*\$3,\s*verified\s*=\s*\$4,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+updated_at\s*$`
)

var accountColumns = []string{"id", "email", "password_hash", "role", "verified", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func duplicateEmail() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "hash", "Client", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("acc-1", now, now))

	got, err := repo.Create(context.Background(), &models.Account{
		Email: "a@x.com", PasswordHash: "hash", Role: models.RoleClient,
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, "a@x.com", got.Email)
	assert.True(t, got.CreatedAt.Equal(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "hash", "Owner", false).
		WillReturnError(duplicateEmail())

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com", PasswordHash: "hash", Role: models.RoleOwner})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "hash", "Owner", false).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@x.com", PasswordHash: "hash", Role: models.RoleOwner})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byIDQuery).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", "a@x.com", "hash", "Delivery", true, now, now))

	got, err := repo.GetByID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, models.RoleDelivery, got.Role)
	assert.True(t, got.Verified)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByIDForUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(lockByIDQ).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", "a@x.com", "hash", "Client", true, now, now))
	mock.ExpectQuery(lockByIDQ).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByIDForUpdate(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.True(t, got.Verified)

	_, err = repo.GetByIDForUpdate(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkVerified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(verifyQuery).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", "a@x.com", "hash2", "Client", true, now, now))
	mock.ExpectQuery(verifyQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(verifyQuery).WithArgs("acc-1").WillReturnError(errors.New("db err"))

	got, err := repo.MarkVerified(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, "hash2", got.PasswordHash, "other columns come back as stored")

	_, err = repo.MarkVerified(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.MarkVerified(context.Background(), "acc-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(byEmailQuery).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("acc-1", "a@x.com", "hash", "Client", false, now, now))

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, models.RoleClient, got.Role)
}

func TestGetByEmail_NotFoundAndError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(byEmailQuery).WithArgs("a@x.com").WillReturnError(errors.New("db err"))

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetByEmail(context.Background(), "a@x.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		result  func(e *sqlmock.ExpectedQuery)
		wantErr error
	}{
		{
			name: "success",
			result: func(e *sqlmock.ExpectedQuery) {
				e.WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
			},
		},
		{
			name:    "not found",
			result:  func(e *sqlmock.ExpectedQuery) { e.WillReturnError(sql.ErrNoRows) },
			wantErr: common.ErrorNotFound,
		},
		{
			name:    "duplicate email",
			result:  func(e *sqlmock.ExpectedQuery) { e.WillReturnError(duplicateEmail()) },
			wantErr: common.ErrorAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			tt.result(mock.ExpectQuery(updateQuery).WithArgs("acc-1", "b@x.com", "hash2", false))

			err := repo.Update(context.Background(), &models.Account{
				ID: "acc-1", Email: "b@x.com", PasswordHash: "hash2", Verified: false,
			})
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
