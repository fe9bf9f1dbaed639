package devserver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres connects through the pgx stdlib driver and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s, err := newSQLStore(ctx, db, true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Open selects the store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, sqlitePath, postgresDSN string) (Store, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(ctx, sqlitePath)
	case "postgres":
		return OpenPostgres(ctx, postgresDSN)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
