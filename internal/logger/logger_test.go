package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func TestLogger_IncludesStackAndServiceOnError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "itda-test")
	log.Error().Stack().Err(errors.New("boom")).Msg("something failed")

	line := lastNonEmptyLine(buf.String())
	if line == "" {
		t.Fatalf("no output captured")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("invalid json log: %v\n%s", err, line)
	}
	if svc, ok := payload["service"].(string); !ok || svc != "itda-test" {
		t.Fatalf("expected service=\"itda-test\", got %v", payload["service"])
	}
	if lvl, ok := payload["level"].(string); !ok || lvl != "error" {
		t.Fatalf("expected level=\"error\", got %v", payload["level"])
	}
	if _, ok := payload["stack"]; !ok {
		t.Fatalf("expected stack field in error log: %s", line)
	}
}

func TestComponentTagsLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "itda-test"), "counsel")
	log.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"component":"counsel"`) {
		t.Fatalf("missing component field: %s", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	if got := SetLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("want debug, got %v", got)
	}
	if got := SetLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("want info fallback, got %v", got)
	}
}
