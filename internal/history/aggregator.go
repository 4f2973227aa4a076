// Package history folds submitted transcripts into a person's cumulative
// history and derives the text handed to the analysis engine.
//
// The package is pure: it never touches the store. Callers load the current
// record, call Submit, run the analysis on the returned text and persist the
// history and the analysis in one write.
package history

import (
	"strings"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Separator delimits transcripts in the analysis input. Occurrences inside a
// transcript are not escaped.
const Separator = "\n\n---\n\n"

// Result is the outcome of Submit.
type Result struct {
	History       []string
	AnalysisInput string
	// Created is true when the record did not exist before this submission.
	Created bool
}

// Submit merges transcript into existing. existing is nil when no record exists.
func Submit(personName, transcript string, isNewPerson bool, existing *model.Person) (Result, error) {
	if err := ValidateSubmission(personName, transcript); err != nil {
		return Result{}, err
	}

	if existing == nil {
		// Append to a missing record degrades to creation.
		h := []string{transcript}
		return Result{History: h, AnalysisInput: Join(h), Created: true}, nil
	}
	if isNewPerson {
		return Result{}, model.ErrNameCollision
	}

	h := make([]string, 0, len(existing.History)+1)
	h = append(h, existing.History...)
	h = append(h, transcript)
	return Result{History: h, AnalysisInput: Join(h)}, nil
}

// ValidateSubmission rejects empty names and blank transcripts.
func ValidateSubmission(personName, transcript string) error {
	if strings.TrimSpace(personName) == "" {
		return model.NewValidationError("personName", "must not be empty")
	}
	if strings.TrimSpace(transcript) == "" {
		return model.NewValidationError("transcript", "must not be empty")
	}
	return nil
}

// Join concatenates transcripts in submission order.
func Join(history []string) string {
	return strings.Join(history, Separator)
}
