package services

import (
	"context"
	"sync"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
	"github.com/parksyoung/It-Da-sub000/internal/store"
	"github.com/parksyoung/It-Da-sub000/internal/store/storetest"
)

// --- Fakes ---

type fakeEngine struct {
	mu     sync.Mutex
	inputs []string
	modes  []model.RelationshipMode
	result *model.AnalysisResult
	err    error
}

func (f *fakeEngine) Analyze(ctx context.Context, text string, mode model.RelationshipMode, lang model.Language) (*model.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result.Clone(), nil
	}
	return storetest.SampleAnalysis(len(f.inputs)), nil
}

type fakeEmbedder struct {
	calls []string
	vec   []float32
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	passages []model.Passage
	err      error
	topK     int
	upserted []searchindex.Document
}

func (f *fakeIndex) Query(ctx context.Context, vec []float32, topK int) ([]model.Passage, error) {
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, docs []searchindex.Document) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, docs...)
	return nil
}

type fakeGenerator struct {
	system string
	user   string
	answer string
	err    error
}

func (f *fakeGenerator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.system, f.user = systemPrompt, userMessage
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// faultyStore wraps a store and injects errors into writes.
type faultyStore struct {
	store.Store
	createErr error
	updateErr error
	// updateErrs is consumed one per Update call before updateErr applies.
	updateErrs []error
	// beforeUpdate runs once before the first Update reaches the store.
	beforeUpdate func()
	getErr       error
}

func (s *faultyStore) Persons() store.Persons { return &faultyPersons{Persons: s.Store.Persons(), s: s} }

type faultyPersons struct {
	store.Persons
	s *faultyStore
}

func (p *faultyPersons) Get(ctx context.Context, owner, name string) (*model.Person, error) {
	if p.s.getErr != nil {
		return nil, p.s.getErr
	}
	return p.Persons.Get(ctx, owner, name)
}

func (p *faultyPersons) Create(ctx context.Context, in *model.Person) (*model.Person, error) {
	if p.s.createErr != nil {
		return nil, p.s.createErr
	}
	return p.Persons.Create(ctx, in)
}

func (p *faultyPersons) Update(ctx context.Context, in *model.Person, expected int64) (*model.Person, error) {
	if fn := p.s.beforeUpdate; fn != nil {
		p.s.beforeUpdate = nil
		fn()
	}
	if len(p.s.updateErrs) > 0 {
		err := p.s.updateErrs[0]
		p.s.updateErrs = p.s.updateErrs[1:]
		return nil, err
	}
	if p.s.updateErr != nil {
		return nil, p.s.updateErr
	}
	return p.Persons.Update(ctx, in, expected)
}
