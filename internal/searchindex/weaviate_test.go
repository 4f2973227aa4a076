package searchindex

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func decodeData(t *testing.T, s string) map[string]models.JSONObject {
	t.Helper()
	var out map[string]models.JSONObject
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestParsePassages_RankOrderAndScore(t *testing.T) {
	data := decodeData(t, `{"Get":{"CounselKnowledge":[
		{"text":"first","source":"a","_additional":{"id":"1","distance":0.1}},
		{"source":"b","_additional":{"id":"2","distance":0.4}},
		{"text":"third","_additional":{"id":"3","distance":"0.5"}}
	]}}`)
	got := parsePassages(data, "CounselKnowledge")
	if len(got) != 3 {
		t.Fatalf("want 3 passages, got %d", len(got))
	}
	if got[0].Text != "first" || got[0].ID != "1" || got[0].Score < 0.89 || got[0].Score > 0.91 {
		t.Fatalf("unexpected first passage: %+v", got[0])
	}
	if got[1].Text != "" || got[1].Source != "b" {
		t.Fatalf("missing text must stay empty: %+v", got[1])
	}
	if got[2].Text != "third" || got[2].Score != 0.5 {
		t.Fatalf("unexpected third passage: %+v", got[2])
	}
}

func TestParsePassages_Empty(t *testing.T) {
	for _, s := range []string{`{}`, `{"Get":{}}`, `{"Get":{"CounselKnowledge":null}}`} {
		if got := parsePassages(decodeData(t, s), "CounselKnowledge"); len(got) != 0 {
			t.Fatalf("%s: want empty, got %+v", s, got)
		}
	}
}

func TestDocumentIDIsStable(t *testing.T) {
	a := DocumentID("book", "be kind")
	if a != DocumentID("book", "be kind") {
		t.Fatal("ids differ for same input")
	}
	if a == DocumentID("book", "be kinder") {
		t.Fatal("ids collide for different text")
	}
}

func TestKnowledgeClassSchema(t *testing.T) {
	c := KnowledgeClass("CounselKnowledge")
	if c.Vectorizer != "none" || len(c.Properties) != 2 || c.Properties[0].Name != "text" {
		t.Fatalf("unexpected class: %+v", c)
	}
}

func TestWeaviateIndex_Integration(t *testing.T) {
	url := os.Getenv("ITDA_WEAVIATE_URL")
	if url == "" {
		t.Skip("ITDA_WEAVIATE_URL not set; skipping weaviate integration test")
	}
	ctx := context.Background()
	class := "ItdaTestKnowledge"
	if err := BootstrapWeaviate(ctx, url, class); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	idx, err := NewWeaviateIndex(url, class)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	docs := []Document{
		{Text: "listen first", Source: "t", Vector: []float32{1, 0, 0}},
		{Text: "ask questions", Source: "t", Vector: []float32{0, 1, 0}},
	}
	if err := idx.Upsert(ctx, docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := idx.Query(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Text != "listen first" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
