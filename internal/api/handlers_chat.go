package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/api/validate"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/services"
)

// ChatHandler serves POST /api/chat. Every failure after decoding is a 500
// with an {error} body.
type ChatHandler struct {
	counsel     *services.CounselService
	devOwner    string
	defaultLang model.Language
}

func NewChatHandler(counsel *services.CounselService, devOwner string, defaultLang model.Language) *ChatHandler {
	return &ChatHandler{counsel: counsel, devOwner: devOwner, defaultLang: defaultLang}
}

type chatRequest struct {
	Message             string `json:"message"`
	ConversationContext string `json:"conversationContext,omitempty"`
	// PersonName records the exchange on that person when set.
	PersonName string `json:"personName,omitempty"`
	Language   string `json:"language,omitempty"`
}

type chatResponse struct {
	Reply   string       `json:"reply"`
	Warning *warningBody `json:"warning,omitempty"`
}

func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.WriteMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, Message(KindInputInvalid, requestLanguage(r, "", h.defaultLang)))
		return
	}
	lang := requestLanguage(r, req.Language, h.defaultLang)
	if err := validate.Question(req.Message); err != nil {
		respond.WriteBadRequest(w, localize(model.NewValidationError("message", err.Error()), KindInputInvalid, lang))
		return
	}

	owner := ""
	if req.PersonName != "" {
		if err := validate.PersonName(req.PersonName); err != nil {
			respond.WriteBadRequest(w, localize(model.NewValidationError("personName", err.Error()), KindInputInvalid, lang))
			return
		}
		owner = strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			owner = h.devOwner
		}
	}

	res, err := h.counsel.Ask(r.Context(), services.AskRequest{
		Owner:       owner,
		PersonName:  req.PersonName,
		Question:    req.Message,
		HistoryText: req.ConversationContext,
		Language:    lang,
	})
	if err != nil {
		_, kind := Classify(err)
		respond.WriteError(w, http.StatusInternalServerError, kind, localize(err, kind, lang))
		return
	}
	respond.WriteJSON(w, http.StatusOK, chatResponse{Reply: res.Answer, Warning: newWarning(res.Warning, lang)})
}
