// Package appstate is the client application state machine. Transition is
// pure: it returns the next state and the effects the caller must execute.
// Effect results are fed back as events.
package appstate

import (
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// View is a named application screen.
type View string

const (
	ViewLanding      View = "landing"
	ViewMap          View = "map"
	ViewInput        View = "input"
	ViewDashboard    View = "dashboard"
	ViewSelfAnalysis View = "self_analysis"
)

// State is the whole client state.
type State struct {
	View     View
	Persons  []model.StoredAnalysis
	Selected string
	// PendingDelete names a person removed locally while the remote delete runs.
	PendingDelete string
	Loading       bool
	Err           error
	Notice        string
}

// Initial is the state at launch.
func Initial() State { return State{View: ViewLanding} }

// SelectedAnalysis returns the analysis of the selected person.
func (s State) SelectedAnalysis() (model.StoredAnalysis, bool) {
	return find(s.Persons, s.Selected)
}

func find(ps []model.StoredAnalysis, name string) (model.StoredAnalysis, bool) {
	for _, p := range ps {
		if p.Speaker2Name == name {
			return p, true
		}
	}
	return model.StoredAnalysis{}, false
}

func without(ps []model.StoredAnalysis, name string) []model.StoredAnalysis {
	out := make([]model.StoredAnalysis, 0, len(ps))
	for _, p := range ps {
		if p.Speaker2Name != name {
			out = append(out, p)
		}
	}
	return out
}

// upsertFront places a at the head, replacing any entry for the same person.
func upsertFront(ps []model.StoredAnalysis, a model.StoredAnalysis) []model.StoredAnalysis {
	out := make([]model.StoredAnalysis, 0, len(ps)+1)
	out = append(out, a)
	return append(out, without(ps, a.Speaker2Name)...)
}

// Event is an input to Transition.
type Event interface{ event() }

type (
	// Started leaves the landing screen.
	Started struct{}
	// PersonsLoaded replaces the local list wholesale.
	PersonsLoaded struct{ Persons []model.StoredAnalysis }
	LoadFailed    struct{ Err error }
	OpenInput     struct{}
	// SubmitRequested carries a transcript from the input screen.
	SubmitRequested struct {
		Name        string
		Transcript  string
		Mode        model.RelationshipMode
		IsNewPerson bool
	}
	SubmitSucceeded struct {
		Analysis model.StoredAnalysis
		// Warning is a degraded-success notice, shown but not fatal.
		Warning string
	}
	SubmitFailed     struct{ Err error }
	SelectPerson     struct{ Name string }
	Back             struct{}
	OpenSelfAnalysis struct{}
	DeleteRequested  struct{ Name string }
	DeleteSucceeded  struct{ Name string }
	DeleteFailed     struct {
		Name string
		Err  error
	}
)

func (Started) event()          {}
func (PersonsLoaded) event()    {}
func (LoadFailed) event()       {}
func (OpenInput) event()        {}
func (SubmitRequested) event()  {}
func (SubmitSucceeded) event()  {}
func (SubmitFailed) event()     {}
func (SelectPerson) event()     {}
func (Back) event()             {}
func (OpenSelfAnalysis) event() {}
func (DeleteRequested) event()  {}
func (DeleteSucceeded) event()  {}
func (DeleteFailed) event()     {}

// Effect is a side effect requested by a transition.
type Effect interface{ effect() }

type (
	LoadPersons      struct{}
	SubmitTranscript SubmitRequested
	DeletePerson     struct{ Name string }
)

func (LoadPersons) effect()      {}
func (SubmitTranscript) effect() {}
func (DeletePerson) effect()     {}

// Transition applies e to s. Events that make no sense in the current view
// leave the state unchanged.
func Transition(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case Started:
		if s.View != ViewLanding {
			return s, nil
		}
		s.View, s.Loading, s.Err = ViewMap, true, nil
		return s, []Effect{LoadPersons{}}

	case PersonsLoaded:
		// a list fetched before the in-flight delete landed must not revive it
		if s.PendingDelete != "" {
			s.Persons = without(ev.Persons, s.PendingDelete)
		} else {
			s.Persons = append([]model.StoredAnalysis(nil), ev.Persons...)
		}
		s.Loading = false
		if s.View == ViewDashboard {
			if _, ok := find(s.Persons, s.Selected); !ok {
				s.View, s.Selected = ViewMap, ""
			}
		}
		return s, nil

	case LoadFailed:
		s.Loading, s.Err = false, ev.Err
		return s, nil

	case OpenInput:
		if s.View != ViewMap && s.View != ViewDashboard {
			return s, nil
		}
		s.View, s.Err, s.Notice = ViewInput, nil, ""
		return s, nil

	case SubmitRequested:
		if s.View != ViewInput || s.Loading {
			return s, nil
		}
		if strings.TrimSpace(ev.Name) == "" {
			s.Err = model.NewValidationError("personName", "must not be empty")
			return s, nil
		}
		if strings.TrimSpace(ev.Transcript) == "" {
			s.Err = model.NewValidationError("transcript", "must not be empty")
			return s, nil
		}
		s.Loading, s.Err, s.Notice = true, nil, ""
		return s, []Effect{SubmitTranscript(ev)}

	case SubmitSucceeded:
		if s.View != ViewInput {
			return s, nil
		}
		s.Persons = upsertFront(s.Persons, ev.Analysis)
		s.View, s.Selected, s.Loading, s.Notice = ViewDashboard, ev.Analysis.Speaker2Name, false, ev.Warning
		return s, nil

	case SubmitFailed:
		s.Loading, s.Err = false, ev.Err
		return s, nil

	case SelectPerson:
		if s.View != ViewMap {
			return s, nil
		}
		if _, ok := find(s.Persons, ev.Name); !ok {
			s.Err = model.ErrNotFound
			return s, nil
		}
		s.View, s.Selected, s.Err = ViewDashboard, ev.Name, nil
		return s, nil

	case Back:
		switch s.View {
		case ViewDashboard, ViewInput, ViewSelfAnalysis:
			s.View, s.Selected, s.Err, s.Notice = ViewMap, "", nil, ""
		}
		return s, nil

	case OpenSelfAnalysis:
		if s.View != ViewMap {
			return s, nil
		}
		s.View = ViewSelfAnalysis
		return s, nil

	case DeleteRequested:
		if s.View != ViewMap && s.View != ViewDashboard {
			return s, nil
		}
		if s.PendingDelete != "" {
			return s, nil
		}
		if _, ok := find(s.Persons, ev.Name); !ok {
			return s, nil
		}
		// tentative local removal
		s.Persons = without(s.Persons, ev.Name)
		s.PendingDelete = ev.Name
		if s.Selected == ev.Name {
			s.View, s.Selected = ViewMap, ""
		}
		return s, []Effect{DeletePerson{Name: ev.Name}}

	case DeleteSucceeded:
		if s.PendingDelete == ev.Name {
			s.PendingDelete = ""
		}
		return s, nil

	case DeleteFailed:
		// never patch around a failed optimistic change; re-fetch everything
		if s.PendingDelete == ev.Name {
			s.PendingDelete = ""
		}
		s.Err, s.Loading = ev.Err, true
		return s, []Effect{LoadPersons{}}
	}
	return s, nil
}
