package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RelationshipMode classifies a person and shapes the analysis tone.
type RelationshipMode string

const (
	ModeWork    RelationshipMode = "WORK"
	ModeRomance RelationshipMode = "ROMANCE"
	ModeFriend  RelationshipMode = "FRIEND"
	ModeOther   RelationshipMode = "OTHER"
)

// ParseMode accepts the mode name in any case. Empty input yields ModeOther.
func ParseMode(s string) (RelationshipMode, error) {
	switch RelationshipMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeWork:
		return ModeWork, nil
	case ModeRomance:
		return ModeRomance, nil
	case ModeFriend:
		return ModeFriend, nil
	case ModeOther, "":
		return ModeOther, nil
	}
	return "", NewValidationError("mode", fmt.Sprintf("unknown relationship mode %q", s))
}

// Language selects the natural language of generated text.
type Language string

const (
	LangKorean  Language = "ko"
	LangEnglish Language = "en"
)

// ParseLanguage returns fallback for anything that is not ko or en.
func ParseLanguage(s string, fallback Language) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "ko"):
		return LangKorean
	case strings.HasPrefix(s, "en"):
		return LangEnglish
	}
	return fallback
}

// CounselRole is the author of a counsel message.
type CounselRole string

const (
	RoleUser      CounselRole = "user"
	RoleAssistant CounselRole = "assistant"
)

// CounselMessage is one turn of a counseling exchange.
type CounselMessage struct {
	ID      string      `json:"id"`
	Role    CounselRole `json:"role"`
	Content string      `json:"content"`
}

// Person is the per-owner record keyed by the display name.
// Version increases by one on every successful write.
type Person struct {
	Owner           string           `json:"owner"`
	Name            string           `json:"name"`
	History         []string         `json:"history"`
	Mode            RelationshipMode `json:"mode"`
	Analysis        *AnalysisResult  `json:"analysis,omitempty"`
	CounselMessages []CounselMessage `json:"counselMessages"`
	Version         int64            `json:"version"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	c.History = append([]string(nil), p.History...)
	c.CounselMessages = append([]CounselMessage(nil), p.CounselMessages...)
	if p.Analysis != nil {
		c.Analysis = p.Analysis.Clone()
	}
	return &c
}

// StoredAnalysis is the presentation projection of a person's latest analysis.
type StoredAnalysis struct {
	ID           string           `json:"id"`
	Date         time.Time        `json:"date"`
	Mode         RelationshipMode `json:"mode"`
	Speaker1Name string           `json:"speaker1Name"`
	Speaker2Name string           `json:"speaker2Name"`
	Result       *AnalysisResult  `json:"result"`
}

// SelfSpeakerName labels the owner's side of every transcript.
const SelfSpeakerName = "Me"

// StoredAnalysisID joins owner and person name into the projection id.
func StoredAnalysisID(owner, name string) string {
	return owner + "_" + name
}

// Project builds the StoredAnalysis for p. The second speaker is always p.Name.
func (p *Person) Project() StoredAnalysis {
	return StoredAnalysis{
		ID:           StoredAnalysisID(p.Owner, p.Name),
		Date:         p.UpdatedAt,
		Mode:         p.Mode,
		Speaker1Name: SelfSpeakerName,
		Speaker2Name: p.Name,
		Result:       p.Analysis,
	}
}

// SortNewestFirst orders persons by UpdatedAt descending, then by name.
func SortNewestFirst(ps []*Person) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].UpdatedAt.Equal(ps[j].UpdatedAt) {
			return ps[i].UpdatedAt.After(ps[j].UpdatedAt)
		}
		return ps[i].Name < ps[j].Name
	})
}

// Passage is one ranked result from the knowledge index.
type Passage struct {
	ID     string  `json:"id,omitempty"`
	Score  float64 `json:"score"`
	Text   string  `json:"text,omitempty"`
	Source string  `json:"source,omitempty"`
}
