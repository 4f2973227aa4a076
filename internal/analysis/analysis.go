// Package analysis is the analysis engine gateway: it turns an aggregated
// transcript into a validated AnalysisResult.
//
// Transport failures surface as model.ErrAnalysisUnavailable. Responses that
// cannot be decoded or that break the output contract surface as
// model.ErrAnalysisMalformed and are never repaired.
package analysis

import (
	"context"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Engine analyzes a transcript for a relationship mode in a language.
type Engine interface {
	Analyze(ctx context.Context, text string, mode model.RelationshipMode, lang model.Language) (*model.AnalysisResult, error)
}
