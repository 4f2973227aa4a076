package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
	"github.com/parksyoung/It-Da-sub000/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres-backed store over db.
func NewWithDB(db *sql.DB) store.Store {
	return sqlstore.New(db, sqlstore.Dialect{Numbered: true, Classify: classify})
}

// Bootstrap connects and creates the persons table if it does not exist.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return sqlstore.EnsureSchema(ctx, db)
}

// classify maps Postgres SQLSTATEs onto store error kinds.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42501", "28000", "28P01":
			return model.NewStoreError(model.StorePermissionDenied, op, err)
		case "42P01", "3D000":
			return model.NewStoreError(model.StoreNotProvisioned, op, err)
		}
		return model.NewStoreError(model.StoreOffline, op, err)
	}
	return model.NewStoreError(model.StoreOffline, op, err)
}
