package store

import (
	"context"
	"time"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/.
type Store interface {
	Persons() Persons
	Close() error
}

// Persons is the per-owner person record collection. Records are keyed by
// (owner, name); names are case-sensitive.
type Persons interface {
	// Get returns model.ErrNotFound when the record does not exist.
	Get(ctx context.Context, owner, name string) (*model.Person, error)
	// List returns the owner's records, newest first.
	List(ctx context.Context, owner string) ([]*model.Person, error)
	// Create inserts p with Version 1. It returns model.ErrNameCollision when
	// the record already exists and never overwrites it.
	Create(ctx context.Context, p *model.Person) (*model.Person, error)
	// Update replaces history, analysis and counsel messages in one write if
	// the stored version equals expectedVersion. Mode is never changed.
	// It returns model.ErrConcurrentModification on version mismatch and
	// model.ErrNotFound when the record is gone.
	Update(ctx context.Context, p *model.Person, expectedVersion int64) (*model.Person, error)
	// Delete removes the whole record, counsel messages included.
	Delete(ctx context.Context, owner, name string) error
}

// Now is the write timestamp used by all adapters. Millisecond precision
// survives every backend unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// FromMillis converts a stored timestamp back to time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Prepare copies p for insertion: version 1, fresh timestamp, non-nil slices.
func Prepare(p *model.Person, version int64) *model.Person {
	c := p.Clone()
	if c.History == nil {
		c.History = []string{}
	}
	if c.CounselMessages == nil {
		c.CounselMessages = []model.CounselMessage{}
	}
	c.Version = version
	c.UpdatedAt = Now()
	return c
}
