package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// OpenPostgres opens a bun handle over a Postgres DSN. Production deployments
// run the durable stores on Postgres; the sqlite dialect exists for tests and
// single-binary setups.
func OpenPostgres(dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: invalid postgres dsn: %w", err)
	}
	sqldb := sql.OpenDB(connector)
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
