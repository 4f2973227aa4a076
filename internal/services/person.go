package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/analysis"
	"github.com/parksyoung/It-Da-sub000/internal/history"
	"github.com/parksyoung/It-Da-sub000/internal/metrics"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// PersonService runs the transcript submission pipeline and person CRUD.
type PersonService struct {
	store  store.Store
	engine analysis.Engine
	log    zerolog.Logger
}

func NewPersonService(s store.Store, engine analysis.Engine, log zerolog.Logger) *PersonService {
	return &PersonService{store: s, engine: engine, log: log}
}

// SubmitRequest is one transcript submission for a person.
type SubmitRequest struct {
	Owner       string
	Name        string
	Transcript  string
	Mode        model.RelationshipMode
	IsNewPerson bool
	Language    model.Language
}

// SubmitResult carries the analyzed record. Warning is set when the analysis
// succeeded but the write did not; Person then holds the unsaved state.
type SubmitResult struct {
	Person  *model.Person
	Stored  model.StoredAnalysis
	Created bool
	Warning error
}

// SubmitTranscript validates, merges, analyzes and persists a transcript.
// History and analysis are written together in one store call.
func (s *PersonService) SubmitTranscript(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if strings.TrimSpace(req.Owner) == "" {
		return nil, model.NewValidationError("owner", "must not be empty")
	}
	if err := history.ValidateSubmission(req.Name, req.Transcript); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = model.ModeOther
	}
	if req.Language == "" {
		req.Language = model.LangKorean
	}

	existing, err := s.store.Persons().Get(ctx, req.Owner, req.Name)
	if errors.Is(err, model.ErrNotFound) {
		existing = nil
	} else if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	merged, err := history.Submit(req.Name, req.Transcript, req.IsNewPerson, existing)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	mode := req.Mode
	if existing != nil {
		mode = existing.Mode
	}

	start := time.Now()
	result, err := s.engine.Analyze(ctx, merged.AnalysisInput, mode, req.Language)
	metrics.ObserveStage("submission", "analysis", time.Since(start).Seconds(), err)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Str("owner", req.Owner).Str("person", req.Name).Msg("analysis failed")
		return nil, err
	}

	var next *model.Person
	var saved *model.Person
	var writeErr error
	start = time.Now()
	if merged.Created {
		next = &model.Person{
			Owner:    req.Owner,
			Name:     req.Name,
			History:  merged.History,
			Mode:     mode,
			Analysis: result,
		}
		saved, writeErr = s.store.Persons().Create(ctx, next)
		if errors.Is(writeErr, model.ErrNameCollision) && !req.IsNewPerson {
			// another writer created the record after our read
			writeErr = model.ErrConcurrentModification
		}
	} else {
		next = existing.Clone()
		next.History = merged.History
		next.Analysis = result
		saved, writeErr = s.store.Persons().Update(ctx, next, existing.Version)
	}
	metrics.ObserveStage("submission", "persist", time.Since(start).Seconds(), writeErr)

	if writeErr != nil {
		if model.IsFatal(writeErr) || !errors.Is(writeErr, model.ErrStoreUnavailable) {
			metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
			s.log.Warn().Err(writeErr).Str("owner", req.Owner).Str("person", req.Name).Msg("submission rejected")
			return nil, writeErr
		}
		metrics.SubmissionsTotal.WithLabelValues("degraded").Inc()
		s.log.Error().Err(writeErr).Str("owner", req.Owner).Str("person", req.Name).Msg("analysis not persisted")
		next.UpdatedAt = store.Now()
		return &SubmitResult{Person: next, Stored: next.Project(), Created: merged.Created, Warning: writeErr}, nil
	}

	outcome := "appended"
	if merged.Created {
		outcome = "created"
	}
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	s.log.Info().
		Str("owner", req.Owner).
		Str("person", req.Name).
		Int("transcripts", len(saved.History)).
		Int64("version", saved.Version).
		Msg("submission stored")
	return &SubmitResult{Person: saved, Stored: saved.Project(), Created: merged.Created}, nil
}

func (s *PersonService) GetPerson(ctx context.Context, owner, name string) (*model.Person, error) {
	if err := validateKey(owner, name); err != nil {
		return nil, err
	}
	return s.store.Persons().Get(ctx, owner, name)
}

// ListAnalyses returns the owner's stored analyses, newest first. Persons
// without an analysis are skipped.
func (s *PersonService) ListAnalyses(ctx context.Context, owner string) ([]model.StoredAnalysis, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, model.NewValidationError("owner", "must not be empty")
	}
	ps, err := s.store.Persons().List(ctx, owner)
	if err != nil {
		return nil, err
	}
	model.SortNewestFirst(ps)
	out := make([]model.StoredAnalysis, 0, len(ps))
	for _, p := range ps {
		if p.Analysis == nil {
			continue
		}
		out = append(out, p.Project())
	}
	return out, nil
}

// DeletePerson removes history, analysis and counsel messages together.
func (s *PersonService) DeletePerson(ctx context.Context, owner, name string) error {
	if err := validateKey(owner, name); err != nil {
		return err
	}
	if err := s.store.Persons().Delete(ctx, owner, name); err != nil {
		return err
	}
	s.log.Info().Str("owner", owner).Str("person", name).Msg("person deleted")
	return nil
}

func validateKey(owner, name string) error {
	if strings.TrimSpace(owner) == "" {
		return model.NewValidationError("owner", "must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return model.NewValidationError("personName", "must not be empty")
	}
	return nil
}
