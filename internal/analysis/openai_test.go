package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

func sampleResult() model.AnalysisResult {
	heat := make([]float64, model.HeatmapHours)
	heat[21] = 14
	me := 2.5
	return model.AnalysisResult{
		IntimacyScore:    64,
		BalanceRatio:     model.BalanceRatio{Me: 60, Partner: 40},
		Sentiment:        model.Sentiment{Positive: 50, Negative: 20, Neutral: 30},
		AvgResponseTime:  model.AvgResponseTime{Me: &me},
		Summary:          "friendly",
		Recommendation:   "ask about the trip",
		SentimentFlow:    []model.SentimentPoint{{TimePercentage: 0, SentimentScore: 0.2}, {TimePercentage: 100, SentimentScore: 0.6}},
		ResponseHeatmap:  heat,
		SuggestedReplies: []string{"how was it?", "let's meet"},
		SuggestedTopics:  []string{"travel", "food"},
	}
}

func responseBody(t *testing.T, text string) string {
	t.Helper()
	body := map[string]any{
		"id":         "resp_1",
		"object":     "response",
		"created_at": 1,
		"model":      "gpt-4o-mini",
		"status":     "completed",
		"output": []any{map[string]any{
			"type":   "message",
			"id":     "msg_1",
			"role":   "assistant",
			"status": "completed",
			"content": []any{map[string]any{
				"type":        "output_text",
				"text":        text,
				"annotations": []any{},
			}},
		}},
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return string(b)
}

type handlerStep struct {
	status int
	body   string
}

func fakeResponses(t *testing.T, steps []handlerStep, calls *int32, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		n := atomic.AddInt32(calls, 1)
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		step := steps[len(steps)-1]
		if int(n) <= len(steps) {
			step = steps[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(step.status)
		_, _ = w.Write([]byte(step.body))
	}))
}

func newTestEngine(url string) *OpenAIEngine {
	return NewOpenAI([]option.RequestOption{option.WithBaseURL(url), option.WithAPIKey("k")}, func(o *Options) {
		o.InitialInterval = time.Millisecond
		o.MaxElapsed = time.Second
	})
}

func TestAnalyze_Valid(t *testing.T) {
	want := sampleResult()
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	var calls int32
	var req map[string]any
	srv := fakeResponses(t, []handlerStep{{http.StatusOK, responseBody(t, string(raw))}}, &calls, &req)
	defer srv.Close()

	got, err := newTestEngine(srv.URL).Analyze(context.Background(), "[21:00] Partner: hi", model.ModeFriend, model.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, 64, got.IntimacyScore)
	assert.Len(t, got.ResponseHeatmap, model.HeatmapHours)
	require.NotNil(t, got.AvgResponseTime.Me)
	assert.Nil(t, got.AvgResponseTime.Partner)
	assert.Equal(t, int32(1), calls)

	text, ok := req["text"].(map[string]any)
	require.True(t, ok)
	format := text["format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, true, format["strict"])
	assert.Contains(t, req["instructions"], "English")
}

func TestAnalyze_Malformed(t *testing.T) {
	bad := sampleResult()
	bad.ResponseHeatmap = bad.ResponseHeatmap[:23]
	raw, err := json.Marshal(bad)
	require.NoError(t, err)

	cases := map[string]string{
		"not json":      "I cannot analyze this",
		"short heatmap": string(raw),
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			var calls int32
			srv := fakeResponses(t, []handlerStep{{http.StatusOK, responseBody(t, text)}}, &calls, nil)
			defer srv.Close()

			_, err := newTestEngine(srv.URL).Analyze(context.Background(), "hello", model.ModeOther, model.LangKorean)
			require.ErrorIs(t, err, model.ErrAnalysisMalformed)
			assert.Equal(t, int32(1), calls)
		})
	}
}

func TestAnalyze_RetriesServerErrors(t *testing.T) {
	raw, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	var calls int32
	srv := fakeResponses(t, []handlerStep{
		{http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`},
		{http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`},
		{http.StatusOK, responseBody(t, string(raw))},
	}, &calls, nil)
	defer srv.Close()

	got, err := newTestEngine(srv.URL).Analyze(context.Background(), "hello", model.ModeWork, model.LangKorean)
	require.NoError(t, err)
	assert.Equal(t, 64, got.IntimacyScore)
	assert.Equal(t, int32(3), calls)
}

func TestAnalyze_ClientErrorIsUnavailable(t *testing.T) {
	var calls int32
	srv := fakeResponses(t, []handlerStep{{http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`}}, &calls, nil)
	defer srv.Close()

	_, err := newTestEngine(srv.URL).Analyze(context.Background(), "hello", model.ModeWork, model.LangKorean)
	require.ErrorIs(t, err, model.ErrAnalysisUnavailable)
	assert.Equal(t, int32(1), calls)
}

func TestAnalyze_EmptyText(t *testing.T) {
	_, err := newTestEngine("http://127.0.0.1:1").Analyze(context.Background(), "  ", model.ModeWork, model.LangKorean)
	require.ErrorIs(t, err, model.ErrInputInvalid)
}
