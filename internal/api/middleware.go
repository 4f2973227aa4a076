package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
	"github.com/parksyoung/It-Da-sub000/internal/metrics"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// OwnerHeader carries the owner identity established upstream.
const OwnerHeader = "X-Owner-ID"

type ownerKey struct{}

// OwnerFrom returns the owner bound by RequireOwner.
func OwnerFrom(ctx context.Context) string {
	s, _ := ctx.Value(ownerKey{}).(string)
	return s
}

// RequireOwner binds the request owner from OwnerHeader, falling back to
// devOwner when set. Requests without an owner are rejected.
func RequireOwner(devOwner string, defaultLang model.Language) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
			if owner == "" {
				owner = devOwner
			}
			if owner == "" {
				lang := requestLanguage(r, "", defaultLang)
				respond.WriteError(w, http.StatusUnauthorized, "owner_required", ownerRequiredMessage(lang))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
		})
	}
}

// RequireAdmin admits requests carrying "Authorization: Bearer <token>".
// With an empty token every request is refused.
func RequireAdmin(token string, defaultLang model.Language) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				lang := requestLanguage(r, "", defaultLang)
				respond.WriteError(w, http.StatusForbidden, KindForbidden, Message(KindForbidden, lang))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ownerRequiredMessage(lang model.Language) string {
	if lang == model.LangEnglish {
		return "Sign in to continue."
	}
	return "로그인이 필요합니다."
}

// requestLanguage prefers the body value, then Accept-Language.
func requestLanguage(r *http.Request, bodyLang string, fallback model.Language) model.Language {
	if bodyLang != "" {
		return model.ParseLanguage(bodyLang, fallback)
	}
	return model.ParseLanguage(r.Header.Get("Accept-Language"), fallback)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Instrument records request latency by route template.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
