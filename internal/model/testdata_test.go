package model

func validResult() *AnalysisResult {
	me, partner := 3.5, 12.0
	heat := make([]float64, HeatmapHours)
	for i := range heat {
		heat[i] = float64(i % 5)
	}
	return &AnalysisResult{
		IntimacyScore:    72,
		BalanceRatio:     BalanceRatio{Me: 55, Partner: 45},
		Sentiment:        Sentiment{Positive: 60, Negative: 10, Neutral: 30},
		AvgResponseTime:  AvgResponseTime{Me: &me, Partner: &partner},
		Summary:          "warm",
		Recommendation:   "keep going",
		SentimentFlow:    []SentimentPoint{{TimePercentage: 0, SentimentScore: 0.1}, {TimePercentage: 100, SentimentScore: 0.8}},
		ResponseHeatmap:  heat,
		SuggestedReplies: []string{"hi", "how are you"},
		SuggestedTopics:  []string{"movies", "food"},
	}
}
