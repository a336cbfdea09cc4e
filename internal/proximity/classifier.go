package proximity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

const (
	// diagonalThreshold is the Chebyshev reach from a point to the midpoint
	// for opposite-quadrant proximity, boundary inclusive.
	diagonalThreshold = 2.0
	// specialZoneThreshold is the Chebyshev reach from a point to the edge
	// of a special zone.
	specialZoneThreshold = 1.0
	// indicatorMinCount is the smallest relationship bucket that earns a
	// summary indicator line.
	indicatorMinCount = 3
	// crossroadsMin is how many distinct relationships put a customer at a
	// crossroads.
	crossroadsMin = 2
)

// Classifier runs the full proximity analysis for one grid configuration.
// It is safe for concurrent use; all state is set at construction.
type Classifier struct {
	calc    *DistanceCalculator
	lateral *LateralProximityCalculator
	zones   *grid.Zones
	log     *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger replaces the global logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Classifier) { c.log = log }
}

// NewClassifier validates the grid configuration and builds a classifier.
func NewClassifier(satScale, loyScale string, mid model.Midpoint, apostlesZoneSize, terroristsZoneSize int, opts ...Option) (*Classifier, error) {
	calc, err := NewDistanceCalculator(satScale, loyScale, mid)
	if err != nil {
		return nil, err
	}
	zones, err := grid.NewZones(calc.SatScale(), calc.LoyScale(), mid, apostlesZoneSize, terroristsZoneSize)
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		calc:    calc,
		lateral: NewLateralProximityCalculator(mid),
		zones:   zones,
		log:     zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Calculator exposes the distance calculator behind this classifier.
func (c *Classifier) Calculator() *DistanceCalculator { return c.calc }

// Zones exposes the special-zone geometry behind this classifier.
func (c *Classifier) Zones() *grid.Zones { return c.zones }

// AnalyzeOptions selects the optional behavior of one analysis run.
type AnalyzeOptions struct {
	// IsPremium is echoed into the result settings for downstream feature
	// gating; it changes nothing in the analysis itself.
	IsPremium bool
	// Threshold overrides the lateral threshold; zero or negative means the
	// scale default.
	Threshold float64
	// ShowSpecialZones enables the corner-zone relationships.
	ShowSpecialZones bool
	// ShowNearApostles additionally enables the near-apostles ring pairs and
	// retargets loyalists toward the ring instead of the apostles block.
	ShowNearApostles bool
}

// AnalyzeProximity classifies every customer against the relationship table
// and aggregates the matches. Quadrant membership comes from the assigner;
// the engine never assigns quadrants itself. Excluded customers and
// fence-sitters take no part. On a grid too small for proximity the result
// carries the reason and empty details instead of an error.
func (c *Classifier) AnalyzeProximity(data []model.DataPoint, assigner grid.Assigner, opts AnalyzeOptions) *model.ProximityAnalysisResult {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = c.calc.DefaultThreshold()
	}

	result := &model.ProximityAnalysisResult{
		Settings: model.ProximitySettings{
			SatisfactionScale:     c.calc.SatScale().String(),
			LoyaltyScale:          c.calc.LoyScale().String(),
			Midpoint:              c.calc.Midpoint(),
			Threshold:             threshold,
			DirectionalThresholds: c.calc.DirectionalThresholds(),
			IsAvailable:           c.calc.IsProximityAvailable(),
			UnavailableReason:     c.calc.UnavailableReason(),
			ShowSpecialZones:      opts.ShowSpecialZones,
			ShowNearApostles:      opts.ShowNearApostles,
			ApostlesZoneSize:      c.zones.ApostlesSize,
			TerroristsZoneSize:    c.zones.TerroristsSize,
			IsPremium:             opts.IsPremium,
		},
	}

	if !c.calc.IsProximityAvailable() {
		c.log.Debug("proximity unavailable",
			zap.String("reason", c.calc.UnavailableReason()),
			zap.String("satisfaction_scale", c.calc.SatScale().String()),
			zap.String("loyalty_scale", c.calc.LoyScale().String()),
		)
		return result
	}

	groups := c.groupByQuadrant(data, assigner)
	c.log.Debug("proximity analysis",
		zap.Int("customers", len(data)),
		zap.Int("loyalists", len(groups[model.QuadrantLoyalists])),
		zap.Int("mercenaries", len(groups[model.QuadrantMercenaries])),
		zap.Int("hostages", len(groups[model.QuadrantHostages])),
		zap.Int("defectors", len(groups[model.QuadrantDefectors])),
		zap.Float64("threshold", threshold),
	)

	lateralMatches := c.lateralPass(groups, threshold)
	for _, rel := range lateralRelationships {
		result.Details = append(result.Details, buildDetail(rel, lateralMatches[Label(rel.From, rel.To)], threshold))
	}
	for _, rel := range diagonalRelationships {
		result.Details = append(result.Details, c.diagonalDetail(rel, groups[rel.From]))
	}
	for _, rel := range specialRelationships {
		if !c.specialEnabled(rel, opts) {
			continue
		}
		result.Details = append(result.Details, c.specialDetail(rel, groups[rel.From]))
	}

	c.summarize(result)
	result.Crossroads = c.crossroads(result.Details)
	return result
}

// groupByQuadrant buckets the analyzable customers by assigned quadrant.
// Excluded rows, fence-sitters, and unassigned points are dropped here so
// the passes never see them.
func (c *Classifier) groupByQuadrant(data []model.DataPoint, assigner grid.Assigner) map[model.Quadrant][]model.DataPoint {
	groups := make(map[model.Quadrant][]model.DataPoint)
	for _, p := range data {
		if p.Excluded || p.OnMidpoint(c.calc.Midpoint()) {
			continue
		}
		q := assigner.QuadrantFor(p)
		if q == model.QuadrantNone {
			continue
		}
		groups[q] = append(groups[q], p)
	}
	return groups
}

// lateralPass classifies every base-quadrant customer once and distributes
// it to the relationship buckets of its in-threshold targets.
func (c *Classifier) lateralPass(groups map[model.Quadrant][]model.DataPoint, threshold float64) map[string][]match {
	matches := make(map[string][]match)
	for _, q := range []model.Quadrant{
		model.QuadrantLoyalists, model.QuadrantMercenaries,
		model.QuadrantHostages, model.QuadrantDefectors,
	} {
		for _, p := range groups[q] {
			res := c.lateral.Classify(p, q, threshold)
			for _, target := range res.Targets {
				label := Label(q, target)
				matches[label] = append(matches[label], match{point: p, distance: res.Distances[target]})
			}
		}
	}
	return matches
}

func (c *Classifier) diagonalDetail(rel Relationship, pts []model.DataPoint) model.ProximityDetail {
	mid := c.calc.Midpoint()
	satHigh := rel.From == model.QuadrantLoyalists || rel.From == model.QuadrantMercenaries
	loyHigh := rel.From == model.QuadrantLoyalists || rel.From == model.QuadrantHostages

	var matches []match
	for _, p := range pts {
		d := math.Max(math.Abs(p.Satisfaction-mid.Sat), math.Abs(p.Loyalty-mid.Loy))
		if d > diagonalThreshold {
			continue
		}
		if !axisInSearchArea(c.calc.SatScale(), mid.Sat, p.Satisfaction, satHigh) {
			continue
		}
		if !axisInSearchArea(c.calc.LoyScale(), mid.Loy, p.Loyalty, loyHigh) {
			continue
		}
		if c.strictQuadrant(p) == rel.To {
			continue
		}
		matches = append(matches, match{point: p, distance: d})
	}
	return buildDetail(rel, matches, diagonalThreshold)
}

// specialEnabled applies the toggle gating. With the ring hidden, loyalists
// are measured straight against the apostles block; with the ring shown,
// loyalists target the ring and the ring targets the block.
func (c *Classifier) specialEnabled(rel Relationship, opts AnalyzeOptions) bool {
	if !opts.ShowSpecialZones {
		return false
	}
	switch {
	case rel.From == model.QuadrantLoyalists && rel.To == model.QuadrantApostles:
		if opts.ShowNearApostles {
			return false
		}
	case rel.To == model.QuadrantNearApostles, rel.From == model.QuadrantNearApostles:
		if !opts.ShowNearApostles {
			return false
		}
	}
	// A single-cell block is all corner and no approach path.
	switch rel.To {
	case model.QuadrantApostles:
		if c.zones.ApostlesSize <= 1 {
			return false
		}
	case model.QuadrantTerrorists:
		if c.zones.TerroristsSize <= 1 {
			return false
		}
	}
	return true
}

func (c *Classifier) specialDetail(rel Relationship, pts []model.DataPoint) model.ProximityDetail {
	inZone := c.zones.InApostles
	distance := c.zones.DistanceToApostles
	switch rel.To {
	case model.QuadrantNearApostles:
		inZone = c.zones.InNearApostles
		distance = c.zones.DistanceToNearApostles
	case model.QuadrantTerrorists:
		inZone = c.zones.InTerrorists
		distance = c.zones.DistanceToTerrorists
	}

	var matches []match
	for _, p := range pts {
		if inZone(p) {
			continue
		}
		d := distance(p)
		if d <= specialZoneThreshold {
			matches = append(matches, match{point: p, distance: d})
		}
	}
	return buildDetail(rel, matches, specialZoneThreshold)
}

// strictQuadrant applies the bare midpoint rule with no special zones, for
// ruling out points the assigner placed across the midline from their group.
func (c *Classifier) strictQuadrant(p model.DataPoint) model.Quadrant {
	mid := c.calc.Midpoint()
	highSat := p.Satisfaction >= mid.Sat
	highLoy := p.Loyalty >= mid.Loy
	switch {
	case highSat && highLoy:
		return model.QuadrantLoyalists
	case highSat:
		return model.QuadrantMercenaries
	case highLoy:
		return model.QuadrantHostages
	default:
		return model.QuadrantDefectors
	}
}

// axisInSearchArea reports whether v sits in the near-midline band on the
// given side of one axis. The band spans the integer positions closest to
// the midline: one position when that side holds three or fewer, two when
// it holds four or more.
func axisInSearchArea(sc grid.Scale, mid, v float64, highSide bool) bool {
	width := 1
	if highSide {
		if sc.PositionsAbove(mid) >= 4 {
			width = 2
		}
		nearest := math.Floor(mid) + 1
		return v > mid && v <= nearest+float64(width-1)
	}
	if sc.PositionsBelow(mid) >= 4 {
		width = 2
	}
	nearest := math.Ceil(mid) - 1
	return v < mid && v >= nearest-float64(width-1)
}

type match struct {
	point    model.DataPoint
	distance float64
}

// buildDetail aggregates the matches of one relationship. denom is the
// threshold the distances were tested against; risk grading is relative to
// it. A relationship with no matches still yields a detail so consumers can
// tell "analyzed, empty" from "not analyzed".
func buildDetail(rel Relationship, matches []match, denom float64) model.ProximityDetail {
	detail := model.ProximityDetail{
		From:      rel.From,
		To:        rel.To,
		Label:     Label(rel.From, rel.To),
		RiskLevel: model.RiskLow,
	}
	if len(matches) == 0 {
		return detail
	}

	positions := make(map[[2]float64]struct{}, len(matches))
	var sumDist float64
	var sumScore int
	for _, m := range matches {
		positions[[2]float64{m.point.Satisfaction, m.point.Loyalty}] = struct{}{}
		sumDist += m.distance
		ratio := m.distance / denom
		score := riskScoreForRatio(ratio)
		sumScore += score
		detail.Customers = append(detail.Customers, model.ProximityCustomer{
			ID:                   m.point.ID,
			Name:                 m.point.Name,
			Satisfaction:         m.point.Satisfaction,
			Loyalty:              m.point.Loyalty,
			DistanceFromBoundary: m.distance,
			RiskScore:            score,
			RiskLevel:            riskLevelForRatio(ratio),
		})
	}
	sort.Slice(detail.Customers, func(i, j int) bool {
		if detail.Customers[i].DistanceFromBoundary != detail.Customers[j].DistanceFromBoundary {
			return detail.Customers[i].DistanceFromBoundary < detail.Customers[j].DistanceFromBoundary
		}
		return detail.Customers[i].ID < detail.Customers[j].ID
	})

	detail.CustomerCount = len(matches)
	detail.PositionCount = len(positions)
	detail.AverageDistance = round2(sumDist / float64(len(matches)))
	detail.RiskLevel = riskLevelForScore(float64(sumScore) / float64(len(matches)))
	return detail
}

// summarize fills the headline numbers and the indicator lines from the
// assembled details.
func (c *Classifier) summarize(result *model.ProximityAnalysisResult) {
	var sumScore, scored int
	for _, d := range result.Details {
		result.Summary.TotalCustomers += d.CustomerCount
		result.Summary.TotalPositions += d.PositionCount
		for _, cu := range d.Customers {
			sumScore += cu.RiskScore
			scored++
		}
		if d.CustomerCount < indicatorMinCount {
			continue
		}
		dir, ok := DirectionOf(d.From, d.To)
		if !ok {
			continue
		}
		if dir == DirectionRisk {
			result.Summary.CrisisIndicators = append(result.Summary.CrisisIndicators,
				fmt.Sprintf("%d customers in %s are drifting toward %s", d.CustomerCount, quadrantText(d.From), quadrantText(d.To)))
		} else {
			result.Summary.OpportunityIndicators = append(result.Summary.OpportunityIndicators,
				fmt.Sprintf("%d customers in %s are within reach of %s", d.CustomerCount, quadrantText(d.From), quadrantText(d.To)))
		}
	}
	if scored > 0 {
		result.Summary.AverageRiskScore = round1(float64(sumScore) / float64(scored))
	}
}

// crossroads finds customers matched by two or more distinct relationships.
func (c *Classifier) crossroads(details []model.ProximityDetail) []model.CrossroadsCustomer {
	type entry struct {
		point  model.ProximityCustomer
		labels []string
		seen   map[string]struct{}
		scores []int
	}
	byID := make(map[string]*entry)
	var order []string

	for _, d := range details {
		for _, cu := range d.Customers {
			e, ok := byID[cu.ID]
			if !ok {
				e = &entry{point: cu, seen: make(map[string]struct{})}
				byID[cu.ID] = e
				order = append(order, cu.ID)
			}
			if _, dup := e.seen[d.Label]; dup {
				continue
			}
			e.seen[d.Label] = struct{}{}
			e.labels = append(e.labels, d.Label)
			e.scores = append(e.scores, cu.RiskScore)
		}
	}

	var out []model.CrossroadsCustomer
	for _, id := range order {
		e := byID[id]
		if len(e.labels) < crossroadsMin {
			continue
		}
		var sum int
		for _, s := range e.scores {
			sum += s
		}
		avg := round1(float64(sum) / float64(len(e.scores)))
		out = append(out, model.CrossroadsCustomer{
			ID:               e.point.ID,
			Name:             e.point.Name,
			Satisfaction:     e.point.Satisfaction,
			Loyalty:          e.point.Loyalty,
			Relationships:    e.labels,
			AverageRiskScore: avg,
			StrategicValue:   strategicValue(len(e.labels), avg),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StrategicValue != out[j].StrategicValue {
			return riskRank(out[i].StrategicValue) > riskRank(out[j].StrategicValue)
		}
		if out[i].AverageRiskScore != out[j].AverageRiskScore {
			return out[i].AverageRiskScore > out[j].AverageRiskScore
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// strategicValue grades a crossroads customer: breadth first, then average
// risk.
func strategicValue(relationships int, avgRisk float64) model.RiskLevel {
	switch {
	case relationships >= 3:
		return model.RiskHigh
	case relationships >= 2 && avgRisk >= 75:
		return model.RiskHigh
	case avgRisk >= 50:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

func riskRank(l model.RiskLevel) int {
	switch l {
	case model.RiskHigh:
		return 2
	case model.RiskModerate:
		return 1
	default:
		return 0
	}
}

func quadrantText(q model.Quadrant) string {
	return strings.ReplaceAll(string(q), "_", " ")
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
