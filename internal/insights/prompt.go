package insights

import (
	"fmt"
	"strings"

	"github.com/JaimeV365/segmentor-sub003/internal/report"
)

// narrativeSystemPrompt is shared by every report, so repeat requests read
// the instructions from the prompt cache instead of paying full input price.
const narrativeSystemPrompt = `You are a customer experience analyst writing the executive summary for a satisfaction and loyalty segmentation report.

You will receive a digest of one dataset's analysis: segment distribution, recommendation score, axis statistics and boundary proximity findings.

Rules:
- Write 2-4 short paragraphs of plain prose, no headings and no bullet lists
- Lead with the overall state of the customer base, then the biggest risk, then the biggest opportunity
- Cite concrete numbers from the digest, not vague quantifiers
- Use only facts present in the digest; never invent customers, counts or trends
- Address a business executive: say what to act on, not how the numbers were computed`

// Digest flattens an assembled report into the plain-text summary the model
// narrates from. It carries every aggregate the report shows but none of the
// per-customer tables.
func Digest(data *report.ReportData) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dataset: %s\n", data.Dataset.Name)
	fmt.Fprintf(&sb, "Scales: satisfaction %s, loyalty %s\n", data.Dataset.SatisfactionScale, data.Dataset.LoyaltyScale)
	fmt.Fprintf(&sb, "Customers: %d analyzed, %d excluded\n", data.Dataset.Customers, data.Dataset.Excluded)

	sb.WriteString("\n--- Segment Distribution ---\n")
	for _, q := range data.Quadrants {
		fmt.Fprintf(&sb, "- %s: %d (%.1f%%)\n", report.SegmentLabel(q.Quadrant), q.Count, q.Percent)
	}

	sb.WriteString("\n--- Recommendation ---\n")
	r := data.Recommendation
	fmt.Fprintf(&sb, "Score %.1f (promoters %d, passives %d, detractors %d of %d)\n",
		r.Score, r.Promoters, r.Passives, r.Detractors, r.Total)

	sb.WriteString("\n--- Axis Statistics ---\n")
	fmt.Fprintf(&sb, "Satisfaction: mean %.2f, median %g\n", data.Satisfaction.Mean, data.Satisfaction.Median)
	fmt.Fprintf(&sb, "Loyalty: mean %.2f, median %g\n", data.Loyalty.Mean, data.Loyalty.Median)

	sb.WriteString("\n--- Boundary Proximity ---\n")
	writeProximity(&sb, data.Proximity)

	return sb.String()
}

func writeProximity(sb *strings.Builder, p report.ProximitySection) {
	if !p.Available {
		fmt.Fprintf(sb, "Unavailable: %s\n", p.UnavailableReason)
		return
	}

	fmt.Fprintf(sb, "Threshold %g. %d customers at %d positions near a boundary, average risk score %.1f.\n",
		p.Threshold, p.Summary.TotalCustomers, p.Summary.TotalPositions, p.Summary.AverageRiskScore)

	for _, d := range p.Relationships {
		fmt.Fprintf(sb, "- %s: %d customers, average distance %.2f, risk %s\n",
			report.RelationshipLabel(d.Label), d.CustomerCount, d.AverageDistance, report.RiskLabel(d.RiskLevel))
	}

	if len(p.Summary.CrisisIndicators) > 0 {
		sb.WriteString("Warnings:\n")
		for _, line := range p.Summary.CrisisIndicators {
			fmt.Fprintf(sb, "- %s\n", line)
		}
	}
	if len(p.Summary.OpportunityIndicators) > 0 {
		sb.WriteString("Opportunities:\n")
		for _, line := range p.Summary.OpportunityIndicators {
			fmt.Fprintf(sb, "- %s\n", line)
		}
	}

	if len(p.Crossroads) > 0 {
		fmt.Fprintf(sb, "Crossroads: %d customers sit close to more than one boundary at once.\n", len(p.Crossroads))
	}
}
