package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/api/validate"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/services"
)

// PersonHandler is a thin HTTP transport over PersonService and the
// per-person counsel routes.
type PersonHandler struct {
	people      *services.PersonService
	counsel     *services.CounselService
	defaultLang model.Language
}

func NewPersonHandler(people *services.PersonService, counsel *services.CounselService, defaultLang model.Language) *PersonHandler {
	return &PersonHandler{people: people, counsel: counsel, defaultLang: defaultLang}
}

// personName reads the {name} path variable. The router keeps paths encoded
// so names may contain '/'.
func personName(r *http.Request) (string, error) {
	raw := mux.Vars(r)["name"]
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", model.NewValidationError("personName", "invalid escape sequence")
	}
	if err := validate.PersonName(name); err != nil {
		return "", model.NewValidationError("personName", err.Error())
	}
	return name, nil
}

type submitTranscriptRequest struct {
	Transcript  string `json:"transcript"`
	Mode        string `json:"mode"`
	IsNewPerson bool   `json:"isNewPerson"`
	Language    string `json:"language"`
}

type submitTranscriptResponse struct {
	Person         *model.Person        `json:"person"`
	StoredAnalysis model.StoredAnalysis `json:"storedAnalysis"`
	Warning        *warningBody         `json:"warning,omitempty"`
}

// SubmitTranscript POST /api/persons/{name}/transcripts
func (h *PersonHandler) SubmitTranscript(w http.ResponseWriter, r *http.Request) {
	var req submitTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		lang := requestLanguage(r, "", h.defaultLang)
		writeServiceError(w, model.NewValidationError("body", "invalid JSON"), lang)
		return
	}
	lang := requestLanguage(r, req.Language, h.defaultLang)

	name, err := personName(r)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	if err := validate.Transcript(req.Transcript); err != nil {
		writeServiceError(w, model.NewValidationError("transcript", err.Error()), lang)
		return
	}
	mode, err := model.ParseMode(req.Mode)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}

	res, err := h.people.SubmitTranscript(r.Context(), services.SubmitRequest{
		Owner:       OwnerFrom(r.Context()),
		Name:        name,
		Transcript:  req.Transcript,
		Mode:        mode,
		IsNewPerson: req.IsNewPerson,
		Language:    lang,
	})
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}

	status := http.StatusOK
	if res.Created && res.Warning == nil {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, submitTranscriptResponse{
		Person:         res.Person,
		StoredAnalysis: res.Stored,
		Warning:        newWarning(res.Warning, lang),
	})
}

// ListPersons GET /api/persons
func (h *PersonHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, "", h.defaultLang)
	out, err := h.people.ListAnalyses(r.Context(), OwnerFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"analyses": out, "count": len(out)})
}

// GetPerson GET /api/persons/{name}
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, "", h.defaultLang)
	name, err := personName(r)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	p, err := h.people.GetPerson(r.Context(), OwnerFrom(r.Context()), name)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// DeletePerson DELETE /api/persons/{name}
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, "", h.defaultLang)
	name, err := personName(r)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	if err := h.people.DeletePerson(r.Context(), OwnerFrom(r.Context()), name); err != nil {
		writeServiceError(w, err, lang)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type counselRequest struct {
	Question            string `json:"question"`
	ConversationContext string `json:"conversationContext,omitempty"`
	Language            string `json:"language"`
}

type counselResponse struct {
	Reply    string                 `json:"reply"`
	Messages []model.CounselMessage `json:"messages,omitempty"`
	Warning  *warningBody           `json:"warning,omitempty"`
}

// AskCounsel POST /api/persons/{name}/counsel
func (h *PersonHandler) AskCounsel(w http.ResponseWriter, r *http.Request) {
	var req counselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, model.NewValidationError("body", "invalid JSON"), requestLanguage(r, "", h.defaultLang))
		return
	}
	lang := requestLanguage(r, req.Language, h.defaultLang)
	name, err := personName(r)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	if err := validate.Question(req.Question); err != nil {
		writeServiceError(w, model.NewValidationError("question", err.Error()), lang)
		return
	}

	res, err := h.counsel.Ask(r.Context(), services.AskRequest{
		Owner:       OwnerFrom(r.Context()),
		PersonName:  name,
		Question:    req.Question,
		HistoryText: req.ConversationContext,
		Language:    lang,
	})
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	respond.WriteJSON(w, http.StatusOK, counselResponse{
		Reply:    res.Answer,
		Messages: res.Messages,
		Warning:  newWarning(res.Warning, lang),
	})
}

// ListCounsel GET /api/persons/{name}/counsel
func (h *PersonHandler) ListCounsel(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, "", h.defaultLang)
	name, err := personName(r)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	msgs, err := h.counsel.Messages(r.Context(), OwnerFrom(r.Context()), name)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs, "count": len(msgs)})
}
