package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisResultValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(a *AnalysisResult)
		ok     bool
	}{
		{name: "valid", mutate: func(a *AnalysisResult) {}, ok: true},
		{name: "score boundaries", mutate: func(a *AnalysisResult) { a.IntimacyScore = 100 }, ok: true},
		{name: "null response times", mutate: func(a *AnalysisResult) { a.AvgResponseTime = AvgResponseTime{} }, ok: true},
		{name: "score above", mutate: func(a *AnalysisResult) { a.IntimacyScore = 101 }},
		{name: "score below", mutate: func(a *AnalysisResult) { a.IntimacyScore = -1 }},
		{name: "heatmap short", mutate: func(a *AnalysisResult) { a.ResponseHeatmap = a.ResponseHeatmap[:23] }},
		{name: "heatmap long", mutate: func(a *AnalysisResult) { a.ResponseHeatmap = append(a.ResponseHeatmap, 1) }},
		{name: "heatmap negative", mutate: func(a *AnalysisResult) { a.ResponseHeatmap[3] = -2 }},
		{name: "empty flow", mutate: func(a *AnalysisResult) { a.SentimentFlow = nil }},
		{name: "flow score range", mutate: func(a *AnalysisResult) { a.SentimentFlow[0].SentimentScore = 1.5 }},
		{name: "balance range", mutate: func(a *AnalysisResult) { a.BalanceRatio.Me = 120 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validResult()
			tc.mutate(a)
			err := a.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAnalysisMalformed), "got %v", err)
		})
	}
}

func TestAnalysisResultNilIsMalformed(t *testing.T) {
	var a *AnalysisResult
	assert.ErrorIs(t, a.Validate(), ErrAnalysisMalformed)
}

func TestAnalysisResultJSONRoundTripKeepsHeatmapOrder(t *testing.T) {
	a := validResult()
	b, err := json.Marshal(a)
	require.NoError(t, err)

	var back AnalysisResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, a, &back)
	assert.Len(t, back.ResponseHeatmap, HeatmapHours)
}

func TestAnalysisResultCloneIsDeep(t *testing.T) {
	a := validResult()
	c := a.Clone()
	c.ResponseHeatmap[0] = 99
	*c.AvgResponseTime.Me = 42
	assert.NotEqual(t, a.ResponseHeatmap[0], c.ResponseHeatmap[0])
	assert.Equal(t, 3.5, *a.AvgResponseTime.Me)
}
