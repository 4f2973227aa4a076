package appstate

import (
	"context"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Backend executes effects against the service.
type Backend interface {
	ListAnalyses(ctx context.Context) ([]model.StoredAnalysis, error)
	Submit(ctx context.Context, req SubmitTranscript) (model.StoredAnalysis, string, error)
	DeletePerson(ctx context.Context, name string) error
}

// Dispatch applies e and runs every resulting effect in order, feeding
// results back until no effects remain.
func Dispatch(ctx context.Context, b Backend, s State, e Event) State {
	queue := []Event{e}
	for len(queue) > 0 {
		var effects []Effect
		s, effects = Transition(s, queue[0])
		queue = queue[1:]
		for _, eff := range effects {
			queue = append(queue, run(ctx, b, eff))
		}
	}
	return s
}

func run(ctx context.Context, b Backend, eff Effect) Event {
	switch ef := eff.(type) {
	case LoadPersons:
		ps, err := b.ListAnalyses(ctx)
		if err != nil {
			return LoadFailed{Err: err}
		}
		return PersonsLoaded{Persons: ps}
	case SubmitTranscript:
		a, warning, err := b.Submit(ctx, ef)
		if err != nil {
			return SubmitFailed{Err: err}
		}
		return SubmitSucceeded{Analysis: a, Warning: warning}
	case DeletePerson:
		if err := b.DeletePerson(ctx, ef.Name); err != nil {
			return DeleteFailed{Name: ef.Name, Err: err}
		}
		return DeleteSucceeded{Name: ef.Name}
	}
	return nil
}
