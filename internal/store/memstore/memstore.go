// Package memstore is an in-process store.Store for development and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

type memStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*model.Person
}

// New returns an empty store.
func New() store.Store {
	return &memStore{records: make(map[string]map[string]*model.Person)}
}

func (s *memStore) Persons() store.Persons { return (*persons)(s) }
func (s *memStore) Close() error          { return nil }

func (s *memStore) HealthPing(ctx context.Context) error { return ctx.Err() }

type persons memStore

func (p *persons) Get(ctx context.Context, owner, name string) (*model.Person, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.records[owner][name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return rec.Clone(), nil
}

func (p *persons) List(ctx context.Context, owner string) ([]*model.Person, error) {
	p.mu.RLock()
	out := make([]*model.Person, 0, len(p.records[owner]))
	for _, rec := range p.records[owner] {
		out = append(out, rec.Clone())
	}
	p.mu.RUnlock()
	model.SortNewestFirst(out)
	return out, nil
}

func (p *persons) Create(ctx context.Context, in *model.Person) (*model.Person, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	byName, ok := p.records[in.Owner]
	if !ok {
		byName = make(map[string]*model.Person)
		p.records[in.Owner] = byName
	}
	if _, exists := byName[in.Name]; exists {
		return nil, model.ErrNameCollision
	}
	rec := store.Prepare(in, 1)
	byName[in.Name] = rec
	return rec.Clone(), nil
}

func (p *persons) Update(ctx context.Context, in *model.Person, expectedVersion int64) (*model.Person, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.records[in.Owner][in.Name]
	if !ok {
		return nil, model.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return nil, model.ErrConcurrentModification
	}
	rec := store.Prepare(in, expectedVersion+1)
	rec.Mode = cur.Mode
	p.records[in.Owner][in.Name] = rec
	return rec.Clone(), nil
}

func (p *persons) Delete(ctx context.Context, owner, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.records[owner][name]; !ok {
		return model.ErrNotFound
	}
	delete(p.records[owner], name)
	return nil
}
