package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxPersonNameRunes = 64
	MaxTranscriptBytes = 512 << 10
	MaxQuestionRunes   = 2000
	MaxPassages        = 100
)

// PersonName validates a display name used as the record key. Names are
// case-sensitive and may contain any printable characters.
func PersonName(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("personName is required")
	}
	if utf8.RuneCountInString(v) > MaxPersonNameRunes {
		return fmt.Errorf("personName exceeds %d characters", MaxPersonNameRunes)
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return fmt.Errorf("personName contains control characters")
		}
	}
	return nil
}

func Transcript(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("transcript is required")
	}
	if len(v) > MaxTranscriptBytes {
		return fmt.Errorf("transcript exceeds %d bytes", MaxTranscriptBytes)
	}
	return nil
}

// Question validates counsel and chat input. Messages name no field; callers
// attach the field they validated.
func Question(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("must not be empty")
	}
	if utf8.RuneCountInString(v) > MaxQuestionRunes {
		return fmt.Errorf("must be at most %d characters", MaxQuestionRunes)
	}
	return nil
}

// PassageCount bounds a knowledge ingest batch.
func PassageCount(n int) error {
	if n == 0 {
		return fmt.Errorf("passages is required")
	}
	if n > MaxPassages {
		return fmt.Errorf("at most %d passages per request", MaxPassages)
	}
	return nil
}
