package model

import "fmt"

// HeatmapHours is the fixed length of AnalysisResult.ResponseHeatmap.
const HeatmapHours = 24

type BalanceRatio struct {
	Me      float64 `json:"me"`
	Partner float64 `json:"partner"`
}

type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// AvgResponseTime is in minutes; nil when it cannot be determined.
type AvgResponseTime struct {
	Me      *float64 `json:"me"`
	Partner *float64 `json:"partner"`
}

type SentimentPoint struct {
	TimePercentage float64 `json:"time_percentage"`
	SentimentScore float64 `json:"sentiment_score"`
}

// AnalysisResult is the structured report produced by the analysis engine.
type AnalysisResult struct {
	IntimacyScore    int              `json:"intimacyScore"`
	BalanceRatio     BalanceRatio     `json:"balanceRatio"`
	Sentiment        Sentiment        `json:"sentiment"`
	AvgResponseTime  AvgResponseTime  `json:"avgResponseTime"`
	Summary          string           `json:"summary"`
	Recommendation   string           `json:"recommendation"`
	SentimentFlow    []SentimentPoint `json:"sentimentFlow"`
	ResponseHeatmap  []float64        `json:"responseHeatmap"`
	SuggestedReplies []string         `json:"suggestedReplies"`
	SuggestedTopics  []string         `json:"suggestedTopics"`
}

// Validate rejects results that break the output contract. It never repairs.
func (a *AnalysisResult) Validate() error {
	if a == nil {
		return malformed("result is empty")
	}
	if a.IntimacyScore < 0 || a.IntimacyScore > 100 {
		return malformed(fmt.Sprintf("intimacyScore %d outside [0,100]", a.IntimacyScore))
	}
	if len(a.ResponseHeatmap) != HeatmapHours {
		return malformed(fmt.Sprintf("responseHeatmap has %d entries, want %d", len(a.ResponseHeatmap), HeatmapHours))
	}
	for i, v := range a.ResponseHeatmap {
		if v < 0 {
			return malformed(fmt.Sprintf("responseHeatmap[%d] is negative", i))
		}
	}
	if len(a.SentimentFlow) == 0 {
		return malformed("sentimentFlow is empty")
	}
	for i, p := range a.SentimentFlow {
		if p.TimePercentage < 0 || p.TimePercentage > 100 {
			return malformed(fmt.Sprintf("sentimentFlow[%d].time_percentage outside [0,100]", i))
		}
		if p.SentimentScore < -1 || p.SentimentScore > 1 {
			return malformed(fmt.Sprintf("sentimentFlow[%d].sentiment_score outside [-1,1]", i))
		}
	}
	for name, v := range map[string]float64{
		"balanceRatio.me":      a.BalanceRatio.Me,
		"balanceRatio.partner": a.BalanceRatio.Partner,
		"sentiment.positive":   a.Sentiment.Positive,
		"sentiment.negative":   a.Sentiment.Negative,
		"sentiment.neutral":    a.Sentiment.Neutral,
	} {
		if v < 0 || v > 100 {
			return malformed(fmt.Sprintf("%s outside [0,100]", name))
		}
	}
	return nil
}

// Clone deep-copies the result.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	c.SentimentFlow = append([]SentimentPoint(nil), a.SentimentFlow...)
	c.ResponseHeatmap = append([]float64(nil), a.ResponseHeatmap...)
	c.SuggestedReplies = append([]string(nil), a.SuggestedReplies...)
	c.SuggestedTopics = append([]string(nil), a.SuggestedTopics...)
	if a.AvgResponseTime.Me != nil {
		v := *a.AvgResponseTime.Me
		c.AvgResponseTime.Me = &v
	}
	if a.AvgResponseTime.Partner != nil {
		v := *a.AvgResponseTime.Partner
		c.AvgResponseTime.Partner = &v
	}
	return &c
}

func malformed(msg string) error {
	return fmt.Errorf("%w: %s", ErrAnalysisMalformed, msg)
}
