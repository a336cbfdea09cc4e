package proximity

import "github.com/JaimeV365/segmentor-sub003/internal/model"

// Kind tells which pass produced a relationship.
type Kind string

const (
	KindLateral  Kind = "lateral"
	KindDiagonal Kind = "diagonal"
	KindSpecial  Kind = "special"
)

// Direction tells whether movement along a relationship would hurt or help.
type Direction string

const (
	DirectionRisk        Direction = "risk"
	DirectionOpportunity Direction = "opportunity"
)

// Relationship is one analyzed from/to pair.
type Relationship struct {
	From model.Quadrant
	To   model.Quadrant
	Kind Kind
	// Direction reads from the loyalty-retention side: moves that lower
	// loyalty or satisfaction are risks, moves upward are opportunities.
	Direction Direction
}

// Label names a relationship the way details and crossroads report it.
func Label(from, to model.Quadrant) string {
	return string(from) + "_close_to_" + string(to)
}

// lateralRelationships lists the eight shared-edge pairs in reporting order.
var lateralRelationships = []Relationship{
	{From: model.QuadrantLoyalists, To: model.QuadrantMercenaries, Kind: KindLateral, Direction: DirectionRisk},
	{From: model.QuadrantLoyalists, To: model.QuadrantHostages, Kind: KindLateral, Direction: DirectionRisk},
	{From: model.QuadrantMercenaries, To: model.QuadrantLoyalists, Kind: KindLateral, Direction: DirectionOpportunity},
	{From: model.QuadrantMercenaries, To: model.QuadrantDefectors, Kind: KindLateral, Direction: DirectionRisk},
	{From: model.QuadrantHostages, To: model.QuadrantLoyalists, Kind: KindLateral, Direction: DirectionOpportunity},
	{From: model.QuadrantHostages, To: model.QuadrantDefectors, Kind: KindLateral, Direction: DirectionRisk},
	{From: model.QuadrantDefectors, To: model.QuadrantMercenaries, Kind: KindLateral, Direction: DirectionOpportunity},
	{From: model.QuadrantDefectors, To: model.QuadrantHostages, Kind: KindLateral, Direction: DirectionOpportunity},
}

// diagonalRelationships lists the four opposite-corner pairs.
var diagonalRelationships = []Relationship{
	{From: model.QuadrantLoyalists, To: model.QuadrantDefectors, Kind: KindDiagonal, Direction: DirectionRisk},
	{From: model.QuadrantDefectors, To: model.QuadrantLoyalists, Kind: KindDiagonal, Direction: DirectionOpportunity},
	{From: model.QuadrantMercenaries, To: model.QuadrantHostages, Kind: KindDiagonal, Direction: DirectionOpportunity},
	{From: model.QuadrantHostages, To: model.QuadrantMercenaries, Kind: KindDiagonal, Direction: DirectionRisk},
}

// specialRelationships lists the corner-zone pairs. Which of them run
// depends on the special-zone toggles; see Classifier.specialPass.
var specialRelationships = []Relationship{
	{From: model.QuadrantLoyalists, To: model.QuadrantApostles, Kind: KindSpecial, Direction: DirectionOpportunity},
	{From: model.QuadrantLoyalists, To: model.QuadrantNearApostles, Kind: KindSpecial, Direction: DirectionOpportunity},
	{From: model.QuadrantNearApostles, To: model.QuadrantApostles, Kind: KindSpecial, Direction: DirectionOpportunity},
	{From: model.QuadrantDefectors, To: model.QuadrantTerrorists, Kind: KindSpecial, Direction: DirectionRisk},
}

// DirectionOf reports the direction of a known relationship label, or false
// for labels the engine never produces.
func DirectionOf(from, to model.Quadrant) (Direction, bool) {
	for _, set := range [][]Relationship{lateralRelationships, diagonalRelationships, specialRelationships} {
		for _, rel := range set {
			if rel.From == from && rel.To == to {
				return rel.Direction, true
			}
		}
	}
	return "", false
}
