package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/api/recovery"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/services"
)

// Deps are the services and settings the router serves.
type Deps struct {
	People      *services.PersonService
	Counsel     *services.CounselService
	Knowledge   *services.KnowledgeService
	IsHealthy   func() bool
	Status      func() string
	Components  func() map[string]bool
	DevOwnerID  string
	AdminToken  string
	DefaultLang model.Language
	Log         zerolog.Logger
}

// NewRouter wires HTTP routes to handlers.
func NewRouter(d Deps) *mux.Router {
	if d.DefaultLang == "" {
		d.DefaultLang = model.LangKorean
	}
	root := mux.NewRouter().UseEncodedPath()
	root.Use(recovery.Middleware(d.Log))
	root.Use(Instrument)

	// Health & metrics
	root.HandleFunc("/api/health", NewHealthHandler(d.IsHealthy, d.Components, d.Status).CheckHealth).Methods("GET")
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Chat (method checked in the handler so non-POST gets a JSON 405)
	chat := NewChatHandler(d.Counsel, d.DevOwnerID, d.DefaultLang)
	root.HandleFunc("/api/chat", chat.HandleChat)

	// Knowledge is shared by every owner, so writes are operator-only
	if d.Knowledge != nil {
		knowledge := root.PathPrefix("/api/knowledge").Subrouter()
		knowledge.Use(RequireAdmin(d.AdminToken, d.DefaultLang))
		knowledge.HandleFunc("", NewKnowledgeHandler(d.Knowledge, d.DefaultLang).Ingest).Methods("POST")
	}

	// Persons
	persons := root.PathPrefix("/api/persons").Subrouter()
	persons.Use(RequireOwner(d.DevOwnerID, d.DefaultLang))
	ph := NewPersonHandler(d.People, d.Counsel, d.DefaultLang)
	persons.HandleFunc("", ph.ListPersons).Methods("GET")
	persons.HandleFunc("/{name}", ph.GetPerson).Methods("GET")
	persons.HandleFunc("/{name}", ph.DeletePerson).Methods("DELETE")
	persons.HandleFunc("/{name}/transcripts", ph.SubmitTranscript).Methods("POST")
	persons.HandleFunc("/{name}/counsel", ph.AskCounsel).Methods("POST")
	persons.HandleFunc("/{name}/counsel", ph.ListCounsel).Methods("GET")
	return root
}
