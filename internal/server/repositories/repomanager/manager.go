// Package repomanager vends repositories bound to a database handle (pool or
// transaction) and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/eatsauth/internal/dbx"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/eatsauth/internal/server/repositories/verifications"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Verifications(db dbx.DBTX) verifications.Repository
}
