package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestComplete(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Text first. "}}]}`, &req)
	defer srv.Close()

	g := New([]option.RequestOption{option.WithBaseURL(srv.URL), option.WithAPIKey("k"), option.WithMaxRetries(0)},
		func(o *Options) { o.Model = "gpt-4o-mini" })
	out, err := g.Complete(context.Background(), "be kind", "should I text first?")
	require.NoError(t, err)
	assert.Equal(t, "Text first.", out)

	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "be kind", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "should I text first?", msgs[1].(map[string]any)["content"])
}

func TestComplete_NoChoices(t *testing.T) {
	srv := fakeServer(t, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`, nil)
	defer srv.Close()

	g := New([]option.RequestOption{option.WithBaseURL(srv.URL), option.WithAPIKey("k"), option.WithMaxRetries(0)})
	_, err := g.Complete(context.Background(), "", "hi")
	require.Error(t, err)
}

func TestComplete_FailsWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	g := New([]option.RequestOption{option.WithBaseURL(srv.URL), option.WithAPIKey("k")})
	_, err := g.Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
