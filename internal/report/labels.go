package report

import (
	"strings"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// SegmentLabel turns a quadrant identifier into its display name.
func SegmentLabel(q model.Quadrant) string {
	switch q {
	case model.QuadrantNone:
		return "Fence-sitters"
	case model.QuadrantNearApostles:
		return "Near-apostles"
	}
	s := string(q)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RelationshipLabel turns a relationship identifier such as
// "loyalists_close_to_mercenaries" into prose.
func RelationshipLabel(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

// RiskLabel folds the engine's levels into prose casing.
func RiskLabel(level model.RiskLevel) string {
	switch level {
	case model.RiskHigh:
		return "High"
	case model.RiskModerate:
		return "Moderate"
	case model.RiskLow:
		return "Low"
	}
	return string(level)
}
