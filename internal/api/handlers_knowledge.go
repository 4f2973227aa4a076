package api

import (
	"encoding/json"
	"net/http"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/api/validate"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/services"
)

type KnowledgeHandler struct {
	svc         *services.KnowledgeService
	defaultLang model.Language
}

func NewKnowledgeHandler(svc *services.KnowledgeService, defaultLang model.Language) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, defaultLang: defaultLang}
}

// Ingest POST /api/knowledge
func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	lang := requestLanguage(r, "", h.defaultLang)
	var req struct {
		Passages []services.KnowledgePassage `json:"passages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, model.NewValidationError("body", "invalid JSON"), lang)
		return
	}
	if err := validate.PassageCount(len(req.Passages)); err != nil {
		writeServiceError(w, model.NewValidationError("passages", err.Error()), lang)
		return
	}
	ids, err := h.svc.Ingest(r.Context(), req.Passages)
	if err != nil {
		writeServiceError(w, err, lang)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids, "count": len(ids)})
}
