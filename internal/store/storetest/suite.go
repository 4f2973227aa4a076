package storetest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// SampleAnalysis returns a contract-valid analysis with a distinctive heatmap.
func SampleAnalysis(score int) *model.AnalysisResult {
	me := 4.25
	heat := make([]float64, model.HeatmapHours)
	for i := range heat {
		heat[i] = float64((i * 7) % 11)
	}
	return &model.AnalysisResult{
		IntimacyScore:    score,
		BalanceRatio:     model.BalanceRatio{Me: 48, Partner: 52},
		Sentiment:        model.Sentiment{Positive: 50, Negative: 20, Neutral: 30},
		AvgResponseTime:  model.AvgResponseTime{Me: &me, Partner: nil},
		Summary:          "대화가 따뜻합니다",
		Recommendation:   "먼저 연락해 보세요",
		SentimentFlow:    []model.SentimentPoint{{TimePercentage: 0, SentimentScore: -0.25}, {TimePercentage: 50, SentimentScore: 0.5}, {TimePercentage: 100, SentimentScore: 0.75}},
		ResponseHeatmap:  heat,
		SuggestedReplies: []string{"잘 지냈어?", "주말에 뭐 해?"},
		SuggestedTopics:  []string{"여행", "음식"},
	}
}

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	persons := s.Persons()

	owner := "u-" + uuid.New().String()
	other := "u-" + uuid.New().String()

	// Create and read back
	created, err := persons.Create(ctx, &model.Person{
		Owner:    owner,
		Name:     "Jordan",
		Mode:     model.ModeRomance,
		History:  []string{"A: hi\nB: hey"},
		Analysis: SampleAnalysis(70),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Version != 1 || created.UpdatedAt.IsZero() {
		t.Fatalf("Create: version=%d updatedAt=%v", created.Version, created.UpdatedAt)
	}

	got, err := persons.Get(ctx, owner, "Jordan")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Jordan" || got.Mode != model.ModeRomance || got.Version != 1 {
		t.Fatalf("Get: unexpected record %+v", got)
	}
	if !reflect.DeepEqual(got.History, []string{"A: hi\nB: hey"}) {
		t.Fatalf("Get: history %q", got.History)
	}
	if !reflect.DeepEqual(got.Analysis, SampleAnalysis(70)) {
		t.Fatalf("Get: analysis did not round-trip: %+v", got.Analysis)
	}
	if len(got.Analysis.ResponseHeatmap) != model.HeatmapHours {
		t.Fatalf("Get: heatmap has %d entries", len(got.Analysis.ResponseHeatmap))
	}
	if !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("Get: updatedAt %v != %v", got.UpdatedAt, created.UpdatedAt)
	}

	// Reads are idempotent
	again, err := persons.Get(ctx, owner, "Jordan")
	if err != nil || !reflect.DeepEqual(again.Analysis, got.Analysis) || again.Version != got.Version {
		t.Fatalf("Get twice: analysis differs (err=%v)", err)
	}

	// Create never overwrites
	if _, err := persons.Create(ctx, &model.Person{Owner: owner, Name: "Jordan", Mode: model.ModeWork, History: []string{"x"}}); !errors.Is(err, model.ErrNameCollision) {
		t.Fatalf("Create duplicate: want ErrNameCollision, got %v", err)
	}

	// Names are case-sensitive and scoped by owner
	if _, err := persons.Get(ctx, owner, "jordan"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get lowercase: want ErrNotFound, got %v", err)
	}
	if _, err := persons.Get(ctx, other, "Jordan"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get other owner: want ErrNotFound, got %v", err)
	}

	// Update with the current version appends; mode is immutable
	time.Sleep(5 * time.Millisecond)
	next := got.Clone()
	next.History = append(next.History, "A: miss you")
	next.Analysis = SampleAnalysis(80)
	next.Mode = model.ModeWork
	next.CounselMessages = []model.CounselMessage{
		{ID: "m1", Role: model.RoleUser, Content: "should I text first?"},
		{ID: "m2", Role: model.RoleAssistant, Content: "yes"},
	}
	updated, err := persons.Update(ctx, next, 1)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != 2 || !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("Update: version=%d updatedAt=%v", updated.Version, updated.UpdatedAt)
	}
	got, err = persons.Get(ctx, owner, "Jordan")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if len(got.History) != 2 || got.History[1] != "A: miss you" || got.Analysis.IntimacyScore != 80 {
		t.Fatalf("Get after update: %+v", got)
	}
	if got.Mode != model.ModeRomance {
		t.Fatalf("Update changed mode to %s", got.Mode)
	}
	if len(got.CounselMessages) != 2 || got.CounselMessages[0].Role != model.RoleUser || got.CounselMessages[1].Content != "yes" {
		t.Fatalf("counsel messages: %+v", got.CounselMessages)
	}

	// Stale version loses
	if _, err := persons.Update(ctx, next, 1); !errors.Is(err, model.ErrConcurrentModification) {
		t.Fatalf("stale Update: want ErrConcurrentModification, got %v", err)
	}
	if _, err := persons.Update(ctx, &model.Person{Owner: owner, Name: "Ghost"}, 1); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Update missing: want ErrNotFound, got %v", err)
	}

	// Exactly one of two racing writers wins
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := got.Clone()
			p.History = append(p.History, "racer")
			_, results[i] = persons.Update(ctx, p, got.Version)
		}(i)
	}
	wg.Wait()
	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("racing Update: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("racing Update: wins=%d conflicts=%d", wins, conflicts)
	}
	if final, _ := persons.Get(ctx, owner, "Jordan"); final == nil || len(final.History) != 3 {
		t.Fatalf("racing Update lost or duplicated history: %+v", final)
	}

	// List is owner scoped and newest first
	time.Sleep(5 * time.Millisecond)
	if _, err := persons.Create(ctx, &model.Person{Owner: owner, Name: "Sam", Mode: model.ModeFriend, History: []string{"B: yo"}}); err != nil {
		t.Fatalf("Create Sam: %v", err)
	}
	if _, err := persons.Create(ctx, &model.Person{Owner: other, Name: "Jordan", Mode: model.ModeWork, History: []string{"C: ok"}}); err != nil {
		t.Fatalf("Create other owner: %v", err)
	}
	lst, err := persons.List(ctx, owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lst) != 2 || lst[0].Name != "Sam" || lst[1].Name != "Jordan" {
		names := make([]string, 0, len(lst))
		for _, p := range lst {
			names = append(names, p.Name)
		}
		t.Fatalf("List: %v", names)
	}
	if lst[0].Analysis != nil {
		t.Fatalf("List: Sam should have no analysis")
	}

	// Delete removes history, analysis and counsel messages together
	if err := persons.Delete(ctx, owner, "Jordan"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := persons.Get(ctx, owner, "Jordan"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get after Delete: want ErrNotFound, got %v", err)
	}
	if err := persons.Delete(ctx, owner, "Jordan"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Delete twice: want ErrNotFound, got %v", err)
	}
	if _, err := persons.Get(ctx, other, "Jordan"); err != nil {
		t.Fatalf("Delete leaked across owners: %v", err)
	}

	// Re-creating after delete starts a fresh record
	re, err := persons.Create(ctx, &model.Person{Owner: owner, Name: "Jordan", Mode: model.ModeFriend, History: []string{"new"}})
	if err != nil || re.Version != 1 || len(re.CounselMessages) != 0 {
		t.Fatalf("re-Create: %+v err=%v", re, err)
	}
}
