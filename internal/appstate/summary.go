package appstate

import "github.com/parksyoung/It-Da-sub000/internal/model"

// SelfSummary aggregates the owner's side across every analysed person.
type SelfSummary struct {
	People          int
	AvgIntimacy     float64
	AvgMyShare      float64
	AvgResponseMins *float64
	// PeakHour is the hour with the highest summed heatmap activity, -1 when unknown.
	PeakHour int
	ByMode   map[model.RelationshipMode]int
}

// Summarize builds the self-analysis view. Persons without a result are skipped.
func Summarize(persons []model.StoredAnalysis) SelfSummary {
	sum := SelfSummary{PeakHour: -1, ByMode: map[model.RelationshipMode]int{}}
	var intimacy, share, resp float64
	var respN int
	var heat [model.HeatmapHours]float64
	for _, p := range persons {
		r := p.Result
		if r == nil {
			continue
		}
		sum.People++
		sum.ByMode[p.Mode]++
		intimacy += float64(r.IntimacyScore)
		share += r.BalanceRatio.Me
		if r.AvgResponseTime.Me != nil {
			resp += *r.AvgResponseTime.Me
			respN++
		}
		for i, v := range r.ResponseHeatmap {
			if i < len(heat) {
				heat[i] += v
			}
		}
	}
	if sum.People == 0 {
		return sum
	}
	sum.AvgIntimacy = intimacy / float64(sum.People)
	sum.AvgMyShare = share / float64(sum.People)
	if respN > 0 {
		avg := resp / float64(respN)
		sum.AvgResponseMins = &avg
	}
	best := 0.0
	for h, v := range heat {
		if v > best {
			best, sum.PeakHour = v, h
		}
	}
	return sum
}
