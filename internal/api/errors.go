package api

import (
	"errors"
	"net/http"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Error kinds reported in ErrorResponse.Kind.
const (
	KindInputInvalid           = "input_invalid"
	KindNotFound               = "not_found"
	KindNameCollision          = "name_collision"
	KindConcurrentModification = "concurrent_modification"
	KindEmbeddingUnavailable   = "embedding_unavailable"
	KindRetrievalUnavailable   = "retrieval_unavailable"
	KindGenerationUnavailable  = "generation_unavailable"
	KindAnalysisUnavailable    = "analysis_unavailable"
	KindAnalysisMalformed      = "analysis_malformed"
	KindStoreOffline           = "store_offline"
	KindStorePermission        = "store_permission"
	KindStoreNotProvisioned    = "store_not_provisioned"
	KindInternal               = "internal"
	KindForbidden              = "forbidden"
)

var messages = map[string]map[model.Language]string{
	KindForbidden: {
		model.LangKorean:  "이 작업은 관리자만 수행할 수 있습니다.",
		model.LangEnglish: "Only operators can perform this action.",
	},
	KindInputInvalid: {
		model.LangKorean:  "입력값을 확인해 주세요.",
		model.LangEnglish: "Please check your input.",
	},
	KindNotFound: {
		model.LangKorean:  "해당 인물의 기록을 찾을 수 없습니다.",
		model.LangEnglish: "No record exists for this person.",
	},
	KindNameCollision: {
		model.LangKorean:  "같은 이름의 인물이 이미 있습니다. 기존 기록에 대화를 추가하려면 '기존 인물'을 선택해 주세요.",
		model.LangEnglish: "A person with this name already exists. Choose the existing person to add this conversation to their history.",
	},
	KindConcurrentModification: {
		model.LangKorean:  "다른 곳에서 이 인물의 기록이 먼저 변경되었습니다. 새로고침한 뒤 다시 시도해 주세요.",
		model.LangEnglish: "This person's record was changed elsewhere. Refresh and try again.",
	},
	KindEmbeddingUnavailable: {
		model.LangKorean:  "질문을 처리하는 서비스에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
		model.LangEnglish: "The service that processes your question is unreachable. Try again shortly.",
	},
	KindRetrievalUnavailable: {
		model.LangKorean:  "상담 지식 베이스에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
		model.LangEnglish: "The counseling knowledge base is unreachable. Try again shortly.",
	},
	KindGenerationUnavailable: {
		model.LangKorean:  "AI 상담 응답을 만들지 못했습니다. 잠시 후 다시 시도해 주세요.",
		model.LangEnglish: "The AI counselor could not produce an answer. Try again shortly.",
	},
	KindAnalysisUnavailable: {
		model.LangKorean:  "AI 분석 서비스에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
		model.LangEnglish: "The AI analysis service is unreachable. Try again shortly.",
	},
	KindAnalysisMalformed: {
		model.LangKorean:  "AI 분석 결과가 올바르지 않아 저장하지 않았습니다. 다시 분석해 주세요.",
		model.LangEnglish: "The AI analysis result was invalid and was not saved. Please analyze again.",
	},
	KindStoreOffline: {
		model.LangKorean:  "네트워크 연결이 원활하지 않습니다. 연결을 확인한 뒤 잠시 후 다시 시도해 주세요.",
		model.LangEnglish: "You appear to be offline. Check your connection and try again later.",
	},
	KindStorePermission: {
		model.LangKorean:  "이 기록에 접근할 권한이 없습니다. 로그인 상태와 접근 권한을 확인해 주세요.",
		model.LangEnglish: "You do not have permission to access this record. Check that you are signed in and have access.",
	},
	KindStoreNotProvisioned: {
		model.LangKorean:  "저장소가 아직 준비되지 않았습니다. 관리자에게 문의해 주세요.",
		model.LangEnglish: "Storage has not been set up yet. Contact the administrator.",
	},
	KindInternal: {
		model.LangKorean:  "알 수 없는 오류가 발생했습니다.",
		model.LangEnglish: "An unexpected error occurred.",
	},
}

// Classify maps a service error to its HTTP status and kind.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInputInvalid):
		return http.StatusBadRequest, KindInputInvalid
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, model.ErrNameCollision):
		return http.StatusConflict, KindNameCollision
	case errors.Is(err, model.ErrConcurrentModification):
		return http.StatusConflict, KindConcurrentModification
	case errors.Is(err, model.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable, KindEmbeddingUnavailable
	case errors.Is(err, model.ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable, KindRetrievalUnavailable
	case errors.Is(err, model.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, KindGenerationUnavailable
	case errors.Is(err, model.ErrAnalysisUnavailable):
		return http.StatusServiceUnavailable, KindAnalysisUnavailable
	case errors.Is(err, model.ErrAnalysisMalformed):
		return http.StatusBadGateway, KindAnalysisMalformed
	case errors.Is(err, model.ErrStoreUnavailable):
		switch model.StoreErrorKindOf(err) {
		case model.StorePermissionDenied:
			return http.StatusForbidden, KindStorePermission
		case model.StoreNotProvisioned:
			return http.StatusServiceUnavailable, KindStoreNotProvisioned
		default:
			return http.StatusServiceUnavailable, KindStoreOffline
		}
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// Message returns the localized message for kind.
func Message(kind string, lang model.Language) string {
	m, ok := messages[kind]
	if !ok {
		m = messages[KindInternal]
	}
	if s, ok := m[lang]; ok {
		return s
	}
	return m[model.LangKorean]
}

// localize appends validation details to the input message.
func localize(err error, kind string, lang model.Language) string {
	msg := Message(kind, lang)
	var ve model.ValidationError
	if kind == KindInputInvalid && errors.As(err, &ve) {
		msg += " (" + ve.Field + ": " + ve.Message + ")"
	}
	return msg
}

// writeServiceError writes err as a localized error response.
func writeServiceError(w http.ResponseWriter, err error, lang model.Language) {
	status, kind := Classify(err)
	respond.WriteError(w, status, kind, localize(err, kind, lang))
}

// warningBody renders a degraded-success warning for a response body.
type warningBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newWarning(err error, lang model.Language) *warningBody {
	if err == nil {
		return nil
	}
	_, kind := Classify(err)
	return &warningBody{Kind: kind, Message: Message(kind, lang)}
}
