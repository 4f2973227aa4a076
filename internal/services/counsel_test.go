package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
	"github.com/parksyoung/It-Da-sub000/internal/store/memstore"
)

type counselFixture struct {
	store  store.Store
	emb    *fakeEmbedder
	idx    *fakeIndex
	gen    *fakeGenerator
	stages []Stage
	svc    *CounselService
}

func newCounselFixture(t *testing.T, s store.Store) *counselFixture {
	t.Helper()
	if s == nil {
		s = memstore.New()
	}
	f := &counselFixture{
		store: s,
		emb:   &fakeEmbedder{},
		idx:   &fakeIndex{},
		gen:   &fakeGenerator{answer: "Go ahead and text first."},
	}
	f.svc = NewCounselService(s, f.emb, f.idx, f.gen, zerolog.Nop(), func(o *CounselOptions) {
		o.PersistBackoff = time.Millisecond
		o.OnStage = func(st Stage) { f.stages = append(f.stages, st) }
	})
	return f
}

func seedPerson(t *testing.T, s store.Store, name string, history ...string) {
	t.Helper()
	_, err := s.Persons().Create(context.Background(), &model.Person{Owner: owner, Name: name, History: history, Mode: model.ModeRomance})
	require.NoError(t, err)
}

func TestAsk_EmptyRetrievalStillAnswers(t *testing.T) {
	f := newCounselFixture(t, nil)
	seedPerson(t, f.store, "Jordan", "A: hi\nB: hey", "A: miss you")

	res, err := f.svc.Ask(context.Background(), AskRequest{
		Owner: owner, PersonName: "Jordan", Question: "should I text first?", Language: model.LangEnglish,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Answer)
	assert.Empty(t, res.RetrievedContext)
	assert.Nil(t, res.Warning)

	assert.Equal(t, []string{"should I text first?"}, f.emb.calls, "only the question is embedded")
	assert.Equal(t, 3, f.idx.topK)
	assert.Equal(t, "should I text first?", f.gen.user)
	assert.Contains(t, f.gen.system, noContextEn)
	assert.Contains(t, f.gen.system, "A: hi\nB: hey\n\n---\n\nA: miss you")
	assert.NotContains(t, f.gen.system, contextHeaderEn)

	assert.Equal(t, []Stage{StageEmbedding, StageRetrieving, StageGenerating, StagePersisting, StageIdle}, f.stages)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, model.RoleUser, res.Messages[0].Role)
	assert.Equal(t, "should I text first?", res.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, res.Messages[1].Role)
	assert.NotEqual(t, res.Messages[0].ID, res.Messages[1].ID)
}

func TestAsk_RetrievedContextInRankOrder(t *testing.T) {
	f := newCounselFixture(t, nil)
	f.idx.passages = []model.Passage{
		{Score: 0.9, Text: "first"},
		{Score: 0.8, Text: ""},
		{Score: 0.7, Text: "third"},
	}
	res, err := f.svc.Ask(context.Background(), AskRequest{Question: "q", HistoryText: "given history"})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nthird", res.RetrievedContext)
	assert.Contains(t, f.gen.system, contextHeaderKo+"\nfirst\n\nthird")
	assert.NotContains(t, f.gen.system, noContextKo)
	assert.Contains(t, f.gen.system, "given history")
	assert.Empty(t, res.Messages, "no person, nothing recorded")
}

func TestAsk_StageErrors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(f *counselFixture)
		want   error
		embeds int
	}{
		{"embedding", func(f *counselFixture) { f.emb.err = errors.New("refused") }, model.ErrEmbeddingUnavailable, 1},
		{"retrieval", func(f *counselFixture) { f.idx.err = errors.New("timeout") }, model.ErrRetrievalUnavailable, 1},
		{"generation", func(f *counselFixture) { f.gen.err = errors.New("quota") }, model.ErrGenerationUnavailable, 1},
		{"empty generation", func(f *counselFixture) { f.gen.answer = "  " }, model.ErrGenerationUnavailable, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCounselFixture(t, nil)
			seedPerson(t, f.store, "Jordan")
			tc.setup(f)

			_, err := f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Jordan", Question: "q"})
			require.ErrorIs(t, err, tc.want)
			assert.Len(t, f.emb.calls, tc.embeds, "embedding is never retried")
			assert.Equal(t, []Stage{StageFailed, StageIdle}, f.stages[len(f.stages)-2:])

			msgs, err := f.svc.Messages(context.Background(), owner, "Jordan")
			require.NoError(t, err)
			assert.Empty(t, msgs)
		})
	}
}

func TestAsk_DimensionMismatchIsEmbeddingError(t *testing.T) {
	f := newCounselFixture(t, nil)
	f.svc.opts.Dimension = 768
	_, err := f.svc.Ask(context.Background(), AskRequest{Question: "q"})
	require.ErrorIs(t, err, model.ErrEmbeddingUnavailable)
}

func TestAsk_InvalidQuestionMakesNoCalls(t *testing.T) {
	f := newCounselFixture(t, nil)
	_, err := f.svc.Ask(context.Background(), AskRequest{Question: "   "})
	require.ErrorIs(t, err, model.ErrInputInvalid)
	assert.Empty(t, f.emb.calls)
	assert.Empty(t, f.stages)
}

func TestAsk_PersistFailureIsWarning(t *testing.T) {
	offline := model.NewStoreError(model.StoreOffline, "update", errors.New("unavailable"))
	fs := &faultyStore{Store: memstore.New(), updateErr: offline}
	f := newCounselFixture(t, fs)
	seedPerson(t, fs.Store, "Jordan")

	res, err := f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Jordan", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "Go ahead and text first.", res.Answer)
	require.ErrorIs(t, res.Warning, model.ErrStoreUnavailable)
}

func TestAsk_UnknownPersonIsWarning(t *testing.T) {
	f := newCounselFixture(t, nil)
	res, err := f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Ghost", Question: "q"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Answer)
	require.ErrorIs(t, res.Warning, model.ErrNotFound)
}

func TestAsk_PersistAppendsToNewerExchange(t *testing.T) {
	ctx := context.Background()
	base := memstore.New()
	fs := &faultyStore{Store: base}
	f := newCounselFixture(t, fs)
	seedPerson(t, base, "Jordan")

	// a newer exchange completes while this request is generating
	fs.beforeUpdate = func() {
		cur, err := base.Persons().Get(ctx, owner, "Jordan")
		require.NoError(t, err)
		cur.CounselMessages = append(cur.CounselMessages,
			model.CounselMessage{ID: "n1", Role: model.RoleUser, Content: "newer"},
			model.CounselMessage{ID: "n2", Role: model.RoleAssistant, Content: "newer answer"})
		_, err = base.Persons().Update(ctx, cur, cur.Version)
		require.NoError(t, err)
	}

	res, err := f.svc.Ask(ctx, AskRequest{Owner: owner, PersonName: "Jordan", Question: "older"})
	require.NoError(t, err)
	require.Nil(t, res.Warning)

	msgs, err := f.svc.Messages(ctx, owner, "Jordan")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "newer", msgs[0].Content)
	assert.Equal(t, "older", msgs[2].Content)
	assert.Equal(t, "Go ahead and text first.", msgs[3].Content)
}

func TestAsk_PersistConflictRetriesAreBounded(t *testing.T) {
	fs := &faultyStore{Store: memstore.New(), updateErr: model.ErrConcurrentModification}
	f := newCounselFixture(t, fs)
	seedPerson(t, fs.Store, "Jordan")

	res, err := f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Jordan", Question: "q"})
	require.NoError(t, err)
	require.ErrorIs(t, res.Warning, model.ErrConcurrentModification)
}

func TestAsk_LoadsHistoryFromStore(t *testing.T) {
	f := newCounselFixture(t, nil)
	seedPerson(t, f.store, "Jordan", "t1", "t2")
	_, err := f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Jordan", Question: "q"})
	require.NoError(t, err)
	assert.Contains(t, f.gen.system, "t1\n\n---\n\nt2")

	// explicit history wins
	_, err = f.svc.Ask(context.Background(), AskRequest{Owner: owner, PersonName: "Jordan", Question: "q", HistoryText: "explicit"})
	require.NoError(t, err)
	assert.Contains(t, f.gen.system, "explicit")
	assert.NotContains(t, f.gen.system, "t1")
}

func TestDeleteRemovesCounselMessages(t *testing.T) {
	ctx := context.Background()
	f := newCounselFixture(t, nil)
	seedPerson(t, f.store, "Jordan", "t1")
	_, err := f.svc.Ask(ctx, AskRequest{Owner: owner, PersonName: "Jordan", Question: "q"})
	require.NoError(t, err)

	people := NewPersonService(f.store, &fakeEngine{}, zerolog.Nop())
	require.NoError(t, people.DeletePerson(ctx, owner, "Jordan"))

	_, err = people.GetPerson(ctx, owner, "Jordan")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = f.svc.Messages(ctx, owner, "Jordan")
	require.ErrorIs(t, err, model.ErrNotFound)
}
