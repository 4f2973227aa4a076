package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/embeddings"
	"github.com/parksyoung/It-Da-sub000/internal/generation"
	"github.com/parksyoung/It-Da-sub000/internal/history"
	"github.com/parksyoung/It-Da-sub000/internal/metrics"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// Stage is a step of one counsel request.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageEmbedding  Stage = "embedding"
	StageRetrieving Stage = "retrieving"
	StageGenerating Stage = "generating"
	StagePersisting Stage = "persisting"
	StageFailed     Stage = "failed"
)

// CounselOptions tune the orchestrator.
type CounselOptions struct {
	TopK int
	// Dimension, when positive, is enforced on every question embedding.
	Dimension int
	// PersistAttempts bounds read-append-write retries on version conflict.
	PersistAttempts int
	PersistBackoff  time.Duration
	// OnStage observes stage transitions of every request.
	OnStage func(Stage)
}

// CounselService answers questions grounded in the knowledge index and a
// person's history, and records each exchange on the person.
type CounselService struct {
	store store.Store
	emb   embeddings.EmbeddingProvider
	idx   searchindex.Index
	gen   generation.Generator
	log   zerolog.Logger
	opts  CounselOptions
	newID func() string
}

func NewCounselService(s store.Store, emb embeddings.EmbeddingProvider, idx searchindex.Index, gen generation.Generator, log zerolog.Logger, optFns ...func(o *CounselOptions)) *CounselService {
	opts := CounselOptions{
		TopK:            3,
		PersistAttempts: 3,
		PersistBackoff:  50 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CounselService{store: s, emb: emb, idx: idx, gen: gen, log: log, opts: opts, newID: uuid.NewString}
}

// AskRequest is one counsel question. PersonName is optional; without it the
// exchange is answered but not recorded.
type AskRequest struct {
	Owner       string
	PersonName  string
	Question    string
	HistoryText string
	Language    model.Language
}

// AskResult holds the answer. Warning is set when the answer could not be
// recorded; the answer is still valid.
type AskResult struct {
	Answer           string
	RetrievedContext string
	Messages         []model.CounselMessage
	Warning          error
}

func (s *CounselService) stage(st Stage) {
	if s.opts.OnStage != nil {
		s.opts.OnStage(st)
	}
}

func (s *CounselService) fail(stage Stage, err error) error {
	metrics.CounselTotal.WithLabelValues("failed").Inc()
	s.log.Error().Err(err).Str("stage", string(stage)).Msg("counsel request failed")
	s.stage(StageFailed)
	s.stage(StageIdle)
	return err
}

// Ask runs embed, retrieve, generate and persist in order.
func (s *CounselService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, model.NewValidationError("question", "must not be empty")
	}
	if req.PersonName != "" && strings.TrimSpace(req.Owner) == "" {
		return nil, model.NewValidationError("owner", "must not be empty")
	}
	if req.Language == "" {
		req.Language = model.LangKorean
	}

	historyText := req.HistoryText
	if historyText == "" && req.PersonName != "" {
		p, err := s.store.Persons().Get(ctx, req.Owner, req.PersonName)
		switch {
		case err == nil:
			historyText = history.Join(p.History)
		case errors.Is(err, model.ErrNotFound):
		default:
			s.log.Warn().Err(err).Str("person", req.PersonName).Msg("history unavailable; answering without it")
		}
	}

	s.stage(StageEmbedding)
	start := time.Now()
	vec, err := s.emb.Embed(ctx, req.Question)
	if err == nil && s.opts.Dimension > 0 {
		err = embeddings.CheckDimension(vec, s.opts.Dimension)
	}
	metrics.ObserveStage("counsel", string(StageEmbedding), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, s.fail(StageEmbedding, fmt.Errorf("%w: %v", model.ErrEmbeddingUnavailable, err))
	}

	s.stage(StageRetrieving)
	start = time.Now()
	passages, err := s.idx.Query(ctx, vec, s.opts.TopK)
	metrics.ObserveStage("counsel", string(StageRetrieving), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, s.fail(StageRetrieving, fmt.Errorf("%w: %v", model.ErrRetrievalUnavailable, err))
	}
	retrieved := JoinPassages(passages)

	s.stage(StageGenerating)
	start = time.Now()
	answer, err := s.gen.Complete(ctx, CounselPrompt(retrieved, historyText, req.Language), req.Question)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty completion")
	}
	metrics.ObserveStage("counsel", string(StageGenerating), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, s.fail(StageGenerating, fmt.Errorf("%w: %v", model.ErrGenerationUnavailable, err))
	}

	res := &AskResult{Answer: answer, RetrievedContext: retrieved}
	if req.PersonName == "" {
		metrics.CounselTotal.WithLabelValues("answered").Inc()
		s.stage(StageIdle)
		return res, nil
	}

	s.stage(StagePersisting)
	start = time.Now()
	saved, err := s.persistExchange(ctx, req.Owner, req.PersonName, req.Question, answer)
	metrics.ObserveStage("counsel", string(StagePersisting), time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Error().Err(err).Str("owner", req.Owner).Str("person", req.PersonName).Msg("counsel exchange not persisted")
		metrics.CounselTotal.WithLabelValues("degraded").Inc()
		res.Warning = err
	} else {
		res.Messages = saved.CounselMessages
		metrics.CounselTotal.WithLabelValues("answered").Inc()
	}
	s.stage(StageIdle)
	return res, nil
}

// persistExchange re-reads the latest record, appends the two messages and
// writes the complete list back conditioned on the version it read.
func (s *CounselService) persistExchange(ctx context.Context, owner, name, question, answer string) (*model.Person, error) {
	userMsg := model.CounselMessage{ID: s.newID(), Role: model.RoleUser, Content: question}
	botMsg := model.CounselMessage{ID: s.newID(), Role: model.RoleAssistant, Content: answer}

	attempts := s.opts.PersistAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.PersistBackoff), uint64(attempts-1))

	var saved *model.Person
	op := func() error {
		cur, err := s.store.Persons().Get(ctx, owner, name)
		if err != nil {
			return backoff.Permanent(err)
		}
		next := cur.Clone()
		next.CounselMessages = append(next.CounselMessages, userMsg, botMsg)
		p, err := s.store.Persons().Update(ctx, next, cur.Version)
		if errors.Is(err, model.ErrConcurrentModification) {
			metrics.PersistConflictsTotal.Inc()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		saved = p
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return saved, nil
}

// Messages returns the person's recorded counsel exchange.
func (s *CounselService) Messages(ctx context.Context, owner, name string) ([]model.CounselMessage, error) {
	if err := validateKey(owner, name); err != nil {
		return nil, err
	}
	p, err := s.store.Persons().Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return p.CounselMessages, nil
}
