package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store/memstore"
)

const owner = "user-1"

func newPersonService(t *testing.T) (*PersonService, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	return NewPersonService(memstore.New(), eng, zerolog.Nop()), eng
}

func TestSubmitTranscript_CreateThenAppend(t *testing.T) {
	ctx := context.Background()
	svc, eng := newPersonService(t)

	res, err := svc.SubmitTranscript(ctx, SubmitRequest{
		Owner: owner, Name: "Jordan", Transcript: "A: hi\nB: hey", Mode: model.ModeRomance, IsNewPerson: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Nil(t, res.Warning)
	assert.Equal(t, []string{"A: hi\nB: hey"}, res.Person.History)
	assert.Equal(t, "A: hi\nB: hey", eng.inputs[0])
	assert.Equal(t, int64(1), res.Person.Version)
	assert.Equal(t, "Jordan", res.Stored.Speaker2Name)
	assert.Equal(t, model.SelfSpeakerName, res.Stored.Speaker1Name)
	assert.Equal(t, owner+"_Jordan", res.Stored.ID)

	res, err = svc.SubmitTranscript(ctx, SubmitRequest{
		Owner: owner, Name: "Jordan", Transcript: "A: miss you", Mode: model.ModeWork,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, []string{"A: hi\nB: hey", "A: miss you"}, res.Person.History)
	assert.Equal(t, "A: hi\nB: hey\n\n---\n\nA: miss you", eng.inputs[1])
	assert.Equal(t, int64(2), res.Person.Version)
	// mode never changes after creation
	assert.Equal(t, model.ModeRomance, res.Person.Mode)
	assert.Equal(t, model.ModeRomance, eng.modes[1])
	// analysis is replaced, not merged
	assert.Equal(t, 2, res.Person.Analysis.IntimacyScore)
}

func TestSubmitTranscript_NameCollision(t *testing.T) {
	ctx := context.Background()
	svc, eng := newPersonService(t)
	_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "x", IsNewPerson: true})
	require.NoError(t, err)

	for _, tr := range []string{"x", "completely different", "A: hi"} {
		_, err = svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: tr, IsNewPerson: true})
		require.ErrorIs(t, err, model.ErrNameCollision)
	}
	assert.Len(t, eng.inputs, 1, "collision must be detected before analysis")

	p, err := svc.GetPerson(ctx, owner, "Jordan")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, p.History)
}

func TestSubmitTranscript_AppendWithoutRecordCreates(t *testing.T) {
	svc, _ := newPersonService(t)
	res, err := svc.SubmitTranscript(context.Background(), SubmitRequest{Owner: owner, Name: "Sam", Transcript: "hello"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, []string{"hello"}, res.Person.History)
	assert.Equal(t, model.ModeOther, res.Person.Mode)
}

func TestSubmitTranscript_InvalidInputMakesNoCalls(t *testing.T) {
	svc, eng := newPersonService(t)
	cases := []SubmitRequest{
		{Owner: owner, Name: "", Transcript: "x"},
		{Owner: owner, Name: "  ", Transcript: "x"},
		{Owner: owner, Name: "A", Transcript: " \n\t"},
		{Owner: "", Name: "A", Transcript: "x"},
	}
	for _, c := range cases {
		_, err := svc.SubmitTranscript(context.Background(), c)
		require.ErrorIs(t, err, model.ErrInputInvalid)
	}
	assert.Empty(t, eng.inputs)
}

func TestSubmitTranscript_AnalysisFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, eng := newPersonService(t)
	eng.err = model.ErrAnalysisMalformed

	_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "x", IsNewPerson: true})
	require.ErrorIs(t, err, model.ErrAnalysisMalformed)

	_, err = svc.GetPerson(ctx, owner, "Jordan")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSubmitTranscript_StoreOfflineIsDegradedSuccess(t *testing.T) {
	offline := model.NewStoreError(model.StoreOffline, "create", errors.New("dial tcp: refused"))
	fs := &faultyStore{Store: memstore.New(), createErr: offline}
	svc := NewPersonService(fs, &fakeEngine{}, zerolog.Nop())

	res, err := svc.SubmitTranscript(context.Background(), SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "x", IsNewPerson: true})
	require.NoError(t, err)
	require.ErrorIs(t, res.Warning, model.ErrStoreUnavailable)
	require.NotNil(t, res.Stored.Result)
	assert.Equal(t, "Jordan", res.Stored.Speaker2Name)
}

func TestSubmitTranscript_ConcurrentModificationIsFatal(t *testing.T) {
	ctx := context.Background()
	base := memstore.New()
	fs := &faultyStore{Store: base}
	svc := NewPersonService(fs, &fakeEngine{}, zerolog.Nop())

	_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "t1", IsNewPerson: true})
	require.NoError(t, err)

	// a competing append lands between our read and our write
	fs.beforeUpdate = func() {
		cur, err := base.Persons().Get(ctx, owner, "Jordan")
		require.NoError(t, err)
		cur.History = append(cur.History, "other")
		_, err = base.Persons().Update(ctx, cur, cur.Version)
		require.NoError(t, err)
	}
	_, err = svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "t2"})
	require.ErrorIs(t, err, model.ErrConcurrentModification)

	p, err := base.Persons().Get(ctx, owner, "Jordan")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "other"}, p.History)
}

func TestSubmitTranscript_RacingCreateInAppendMode(t *testing.T) {
	ctx := context.Background()
	base := memstore.New()
	fs := &faultyStore{Store: base, createErr: model.ErrNameCollision}
	svc := NewPersonService(fs, &fakeEngine{}, zerolog.Nop())

	_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "t"})
	require.ErrorIs(t, err, model.ErrConcurrentModification)

	_, err = svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "t", IsNewPerson: true})
	require.ErrorIs(t, err, model.ErrNameCollision)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPersonService(t)
	for _, n := range []string{"A", "B"} {
		_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: n, Transcript: "hi " + n, IsNewPerson: true})
		require.NoError(t, err)
	}
	list, err := svc.ListAnalyses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Date.Before(list[1].Date))

	require.NoError(t, svc.DeletePerson(ctx, owner, "A"))
	_, err = svc.GetPerson(ctx, owner, "A")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, svc.DeletePerson(ctx, owner, "A"), model.ErrNotFound)

	list, err = svc.ListAnalyses(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Speaker2Name)
}

func TestGetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPersonService(t)
	_, err := svc.SubmitTranscript(ctx, SubmitRequest{Owner: owner, Name: "Jordan", Transcript: "x", IsNewPerson: true})
	require.NoError(t, err)

	a, err := svc.GetPerson(ctx, owner, "Jordan")
	require.NoError(t, err)
	b, err := svc.GetPerson(ctx, owner, "Jordan")
	require.NoError(t, err)
	assert.Equal(t, a.Analysis, b.Analysis)
	assert.Len(t, b.Analysis.ResponseHeatmap, model.HeatmapHours)
}
