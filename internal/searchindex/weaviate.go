package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/parksyoung/It-Da-sub000/internal/health"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// weaviateIndex stores knowledge passages in a single non-tenant class.
type weaviateIndex struct {
	client    *weaviate.Client
	className string
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8082".
func NewWeaviateIndex(baseURL, className string) (Index, error) {
	cl, err := newClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &weaviateIndex{client: cl, className: className}, nil
}

func newClient(baseURL string) (*weaviate.Client, error) {
	scheme := "http"
	host := baseURL
	if i := strings.Index(baseURL, "://"); i >= 0 {
		scheme, host = baseURL[:i], baseURL[i+3:]
	}
	return weaviate.NewClient(weaviate.Config{Scheme: scheme, Host: host})
}

func (w *weaviateIndex) Query(ctx context.Context, vec []float32, topK int) ([]model.Passage, error) {
	nv := w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	resp, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithNearVector(nv).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "text"},
			gql.Field{Name: "source"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "id"}, {Name: "distance"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}
	return parsePassages(resp.Data, w.className), nil
}

// parsePassages extracts Get.{class} objects in rank order. Score is
// 1 - distance so higher is more similar.
func parsePassages(data map[string]models.JSONObject, className string) []model.Passage {
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []model.Passage{}
	}
	raw, ok := getData[className].([]interface{})
	if !ok {
		return []model.Passage{}
	}
	out := make([]model.Passage, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := model.Passage{}
		p.Text, _ = m["text"].(string)
		p.Source, _ = m["source"].(string)
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			p.ID, _ = add["id"].(string)
			if d, ok := toFloat(add["distance"]); ok {
				p.Score = 1 - d
			}
		}
		out = append(out, p)
	}
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

// DocumentID derives a stable object id from source and text so re-ingesting
// the same passage replaces it.
func DocumentID(source, text string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"\n"+text)).String()
}

func (w *weaviateIndex) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	objs := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = DocumentID(d.Source, d.Text)
		}
		objs = append(objs, &models.Object{
			Class: w.className,
			ID:    strfmt.UUID(id),
			Properties: map[string]interface{}{
				"text":   d.Text,
				"source": d.Source,
			},
			Vector: d.Vector,
		})
	}
	res, err := w.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range res {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate batch object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// HealthPing implements health.HealthPinger.
func (w *weaviateIndex) HealthPing(ctx context.Context) error {
	ready, err := w.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("weaviate not ready")
	}
	return nil
}

// NewHealthChecker monitors idx when it can be pinged; other indexes are
// reported healthy.
func NewHealthChecker(idx Index, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	p, ok := idx.(health.HealthPinger)
	if !ok {
		p = health.PingerFunc(func(context.Context) error { return nil })
	}
	return health.NewPingChecker("search_index", p, log, probeTimeout)
}

// formatGraphQLErrors returns compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
