package analytics

import (
	"math"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// RecommendationScore is the NPS-style rollup of the loyalty axis. Loyalty
// is normalized onto 0-10 before banding so any scale behaves like the
// classic survey.
type RecommendationScore struct {
	Promoters  int     `json:"promoters"`
	Passives   int     `json:"passives"`
	Detractors int     `json:"detractors"`
	Total      int     `json:"total"`
	Score      float64 `json:"score"` // %promoters - %detractors, -100..100
}

// Recommendation bands every non-excluded customer by normalized loyalty:
// 9 and up promotes, 7 to under 9 is passive, below 7 detracts.
func Recommendation(loy grid.Scale, data []model.DataPoint) RecommendationScore {
	var rs RecommendationScore
	span := float64(loy.Max - loy.Min)

	for _, p := range data {
		if p.Excluded {
			continue
		}
		normalized := (p.Loyalty - float64(loy.Min)) / span * 10
		rs.Total++
		switch {
		case normalized >= 9:
			rs.Promoters++
		case normalized >= 7:
			rs.Passives++
		default:
			rs.Detractors++
		}
	}

	if rs.Total > 0 {
		score := (float64(rs.Promoters) - float64(rs.Detractors)) / float64(rs.Total) * 100
		rs.Score = math.Round(score*10) / 10
	}
	return rs
}
