// Package sqlstore implements store.Persons over database/sql. The postgres
// and sqlite adapters share it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// Dialect captures the driver-specific bits.
type Dialect struct {
	// Numbered rewrites "?" placeholders to "$1", "$2", ...
	Numbered bool
	// Classify maps a driver error to a *model.StoreError.
	Classify func(op string, err error) error
}

// Rebind rewrites "?" placeholders for the dialect.
func (d Dialect) Rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Schema is the portable persons table. Timestamps are unix milliseconds.
const Schema = `CREATE TABLE IF NOT EXISTS persons (
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    mode TEXT NOT NULL,
    history TEXT NOT NULL,
    analysis TEXT,
    counsel_messages TEXT NOT NULL,
    version BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL,
    PRIMARY KEY (owner_id, name)
)`

// New returns a store.Store over db.
func New(db *sql.DB, d Dialect) *Store {
	if d.Classify == nil {
		d.Classify = func(op string, err error) error {
			return model.NewStoreError(model.StoreOffline, op, err)
		}
	}
	return &Store{db: db, d: d}
}

type Store struct {
	db *sql.DB
	d  Dialect
}

func (s *Store) Persons() store.Persons { return &persons{db: s.db, d: s.d} }
func (s *Store) Close() error          { return s.db.Close() }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the persons table if needed.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type persons struct {
	db *sql.DB
	d  Dialect
}

const selectCols = `owner_id, name, mode, history, analysis, counsel_messages, version, updated_at_ms`

type scanner interface{ Scan(dest ...any) error }

func scanPerson(row scanner) (*model.Person, error) {
	var (
		p        model.Person
		mode     string
		history  string
		analysis sql.NullString
		counsel  string
		updated  int64
	)
	if err := row.Scan(&p.Owner, &p.Name, &mode, &history, &analysis, &counsel, &p.Version, &updated); err != nil {
		return nil, err
	}
	p.Mode = model.RelationshipMode(mode)
	p.UpdatedAt = store.FromMillis(updated)
	if err := json.Unmarshal([]byte(history), &p.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if err := json.Unmarshal([]byte(counsel), &p.CounselMessages); err != nil {
		return nil, fmt.Errorf("decode counsel messages: %w", err)
	}
	if analysis.Valid && analysis.String != "" {
		var a model.AnalysisResult
		if err := json.Unmarshal([]byte(analysis.String), &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		p.Analysis = &a
	}
	return &p, nil
}

type encoded struct {
	history  string
	analysis sql.NullString
	counsel  string
}

func encode(p *model.Person) (encoded, error) {
	var e encoded
	h, err := json.Marshal(p.History)
	if err != nil {
		return e, err
	}
	c, err := json.Marshal(p.CounselMessages)
	if err != nil {
		return e, err
	}
	e.history, e.counsel = string(h), string(c)
	if p.Analysis != nil {
		a, err := json.Marshal(p.Analysis)
		if err != nil {
			return e, err
		}
		e.analysis = sql.NullString{String: string(a), Valid: true}
	}
	return e, nil
}

func (r *persons) Get(ctx context.Context, owner, name string) (*model.Person, error) {
	row := r.db.QueryRowContext(ctx, r.d.Rebind(`SELECT `+selectCols+` FROM persons WHERE owner_id=? AND name=?`), owner, name)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, r.d.Classify("get", err)
	}
	return p, nil
}

func (r *persons) List(ctx context.Context, owner string) ([]*model.Person, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(`SELECT `+selectCols+` FROM persons WHERE owner_id=? ORDER BY updated_at_ms DESC, name ASC`), owner)
	if err != nil {
		return nil, r.d.Classify("list", err)
	}
	defer rows.Close()
	out := []*model.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, r.d.Classify("list", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, r.d.Classify("list", err)
	}
	return out, nil
}

func (r *persons) Create(ctx context.Context, in *model.Person) (*model.Person, error) {
	p := store.Prepare(in, 1)
	e, err := encode(p)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`
        INSERT INTO persons (owner_id, name, mode, history, analysis, counsel_messages, version, updated_at_ms)
        VALUES (?,?,?,?,?,?,?,?)
        ON CONFLICT (owner_id, name) DO NOTHING
    `), p.Owner, p.Name, string(p.Mode), e.history, e.analysis, e.counsel, p.Version, p.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, r.d.Classify("create", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, r.d.Classify("create", err)
	}
	if n == 0 {
		return nil, model.ErrNameCollision
	}
	return p, nil
}

func (r *persons) Update(ctx context.Context, in *model.Person, expectedVersion int64) (*model.Person, error) {
	p := store.Prepare(in, expectedVersion+1)
	e, err := encode(p)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, r.d.Classify("update", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, r.d.Rebind(`
        UPDATE persons SET history=?, analysis=?, counsel_messages=?, version=?, updated_at_ms=?
        WHERE owner_id=? AND name=? AND version=?
    `), e.history, e.analysis, e.counsel, p.Version, p.UpdatedAt.UnixMilli(), p.Owner, p.Name, expectedVersion)
	if err != nil {
		return nil, r.d.Classify("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, r.d.Classify("update", err)
	}
	if n == 0 {
		var v int64
		err := tx.QueryRowContext(ctx, r.d.Rebind(`SELECT version FROM persons WHERE owner_id=? AND name=?`), p.Owner, p.Name).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		if err != nil {
			return nil, r.d.Classify("update", err)
		}
		return nil, model.ErrConcurrentModification
	}

	var mode string
	if err := tx.QueryRowContext(ctx, r.d.Rebind(`SELECT mode FROM persons WHERE owner_id=? AND name=?`), p.Owner, p.Name).Scan(&mode); err != nil {
		return nil, r.d.Classify("update", err)
	}
	p.Mode = model.RelationshipMode(mode)

	if err := tx.Commit(); err != nil {
		return nil, r.d.Classify("update", err)
	}
	return p, nil
}

func (r *persons) Delete(ctx context.Context, owner, name string) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`DELETE FROM persons WHERE owner_id=? AND name=?`), owner, name)
	if err != nil {
		return r.d.Classify("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.d.Classify("delete", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
