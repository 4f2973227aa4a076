package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Options configure the OpenAI analysis engine.
type Options struct {
	Model           string
	MaxOutputTokens int64
	// MaxElapsed bounds retries of rate-limit and server errors.
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	Log             zerolog.Logger
}

// OpenAIEngine calls the Responses API with a strict JSON schema.
type OpenAIEngine struct {
	client *openai.Client
	opts   Options
	schema map[string]interface{}
}

// NewOpenAI creates an engine with its own client.
func NewOpenAI(reqOpts []option.RequestOption, optFns ...func(o *Options)) *OpenAIEngine {
	// retries are handled here with backoff
	reqOpts = append(reqOpts, option.WithMaxRetries(0))
	client := openai.NewClient(reqOpts...)
	return NewOpenAIFromClient(&client, optFns...)
}

// NewOpenAIFromClient creates an engine from an existing client.
func NewOpenAIFromClient(client *openai.Client, optFns ...func(o *Options)) *OpenAIEngine {
	opts := Options{
		Model:           openai.ChatModelGPT4oMini,
		MaxOutputTokens: 4000,
		MaxElapsed:      2 * time.Minute,
		InitialInterval: 2 * time.Second,
		Log:             zerolog.Nop(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	schema := GenerateSchema[model.AnalysisResult]()
	makeNullable(schema, "avgResponseTime", "me")
	makeNullable(schema, "avgResponseTime", "partner")
	return &OpenAIEngine{client: client, opts: opts, schema: schema}
}

func (e *OpenAIEngine) Analyze(ctx context.Context, text string, mode model.RelationshipMode, lang model.Language) (*model.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewValidationError("text", "must not be empty")
	}

	params := responses.ResponseNewParams{
		Model:           e.opts.Model,
		MaxOutputTokens: openai.Int(e.opts.MaxOutputTokens),
		Instructions:    openai.String(Instructions(mode, lang)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "RelationshipAnalysis",
					Schema:      e.schema,
					Strict:      openai.Bool(true),
					Description: openai.String("Relationship analysis report"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := e.callWithRetry(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAnalysisUnavailable, err)
	}

	var out model.AnalysisResult
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", model.ErrAnalysisMalformed, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *OpenAIEngine) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.opts.InitialInterval
	b.MaxElapsedTime = e.opts.MaxElapsed

	var resp *responses.Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := e.client.Responses.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				e.opts.Log.Warn().Err(err).Int("attempt", attempt).Msg("analysis request failed; retrying")
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// isRetryable reports rate limits and server errors.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return false
}

// decodeModelJSON unmarshals the model output, tolerating text around a
// single top-level object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := jsonUnmarshalStrict(s, v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return io.ErrUnexpectedEOF
	}
	return jsonUnmarshalStrict(s[start:end+1], v)
}
