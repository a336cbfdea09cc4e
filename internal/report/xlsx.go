package report

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX exports the report as a workbook: a summary sheet, a
// relationships sheet and, when the payload carries premium detail, a
// crossroads sheet.
func WriteXLSX(data *ReportData, path string) error {
	f := xlsx.NewFile()

	if err := writeSummarySheet(f, data); err != nil {
		return err
	}
	if err := writeRelationshipsSheet(f, data); err != nil {
		return err
	}
	if len(data.Proximity.Crossroads) > 0 {
		if err := writeCrossroadsSheet(f, data); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func writeSummarySheet(f *xlsx.File, data *ReportData) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addRow(sheet, "Dataset", data.Dataset.Name)
	addRow(sheet, "Satisfaction scale", data.Dataset.SatisfactionScale)
	addRow(sheet, "Loyalty scale", data.Dataset.LoyaltyScale)
	addRow(sheet, "Midpoint", fmt.Sprintf("(%g, %g)", data.Dataset.Midpoint.Sat, data.Dataset.Midpoint.Loy))
	addRow(sheet, "Customers", data.Dataset.Customers)
	addRow(sheet, "Excluded", data.Dataset.Excluded)
	addRow(sheet, "Generated", data.GeneratedAt)
	addRow(sheet)

	addRow(sheet, "Segment", "Customers", "Share %")
	for _, q := range data.Quadrants {
		addRow(sheet, SegmentLabel(q.Quadrant), q.Count, q.Percent)
	}
	addRow(sheet)

	addRow(sheet, "Recommendation score", data.Recommendation.Score)
	addRow(sheet, "Promoters", data.Recommendation.Promoters)
	addRow(sheet, "Passives", data.Recommendation.Passives)
	addRow(sheet, "Detractors", data.Recommendation.Detractors)
	addRow(sheet)

	if data.Proximity.Available {
		addRow(sheet, "Customers near a boundary", data.Proximity.Summary.TotalCustomers)
		addRow(sheet, "Average risk score", data.Proximity.Summary.AverageRiskScore)
	} else {
		addRow(sheet, "Proximity analysis", "unavailable: "+data.Proximity.UnavailableReason)
	}
	return nil
}

func writeRelationshipsSheet(f *xlsx.File, data *ReportData) error {
	sheet, err := f.AddSheet("Relationships")
	if err != nil {
		return eris.Wrap(err, "report: add relationships sheet")
	}

	addRow(sheet, "Relationship", "Customers", "Positions", "Avg distance", "Risk")
	for _, rel := range data.Proximity.Relationships {
		addRow(sheet, RelationshipLabel(rel.Label), rel.CustomerCount, rel.PositionCount, rel.AverageDistance, RiskLabel(rel.RiskLevel))
	}
	return nil
}

func writeCrossroadsSheet(f *xlsx.File, data *ReportData) error {
	sheet, err := f.AddSheet("Crossroads")
	if err != nil {
		return eris.Wrap(err, "report: add crossroads sheet")
	}

	addRow(sheet, "Customer", "Name", "Satisfaction", "Loyalty", "Relationships", "Avg risk", "Strategic value")
	for _, c := range data.Proximity.Crossroads {
		labels := make([]string, len(c.Relationships))
		for i, rel := range c.Relationships {
			labels[i] = RelationshipLabel(rel)
		}
		addRow(sheet, c.ID, c.Name, c.Satisfaction, c.Loyalty, strings.Join(labels, ", "), c.AverageRiskScore, RiskLabel(c.StrategicValue))
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...any) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch t := v.(type) {
		case string:
			cell.SetString(t)
		case int:
			cell.SetInt(t)
		case float64:
			cell.SetFloat(t)
		default:
			cell.SetString(fmt.Sprintf("%v", t))
		}
	}
}
