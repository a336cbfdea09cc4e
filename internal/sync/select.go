package sync

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/pkg/salesforce"
)

// Candidate is one customer selected for CRM follow-up.
type Candidate struct {
	ID            string
	Name          string
	Email         string
	RiskScore     float64
	Relationships []string
	Crossroads    bool
}

// SelectActionable picks the customers from an analysis result worth a
// follow-up task: crossroads customers with HIGH strategic value, plus any
// HIGH-risk relationship member at or above the risk floor. Customers
// appearing in several relationships collapse into one candidate carrying
// all their labels and their highest risk score.
func SelectActionable(points []model.DataPoint, result *model.ProximityAnalysisResult, minRisk float64) []Candidate {
	if result == nil {
		return nil
	}

	pointsByID := make(map[string]model.DataPoint, len(points))
	for _, p := range points {
		pointsByID[p.ID] = p
	}

	byID := make(map[string]*Candidate)
	var order []string

	add := func(id, name string, risk float64, label string, crossroads bool) {
		c, ok := byID[id]
		if !ok {
			c = &Candidate{ID: id, Name: name}
			if p, found := pointsByID[id]; found {
				c.Email = p.Email
				if c.Name == "" {
					c.Name = p.Name
				}
			}
			byID[id] = c
			order = append(order, id)
		}
		if risk > c.RiskScore {
			c.RiskScore = risk
		}
		if label != "" && !hasLabel(c.Relationships, label) {
			c.Relationships = append(c.Relationships, label)
		}
		if crossroads {
			c.Crossroads = true
		}
	}

	// Crossroads customers with HIGH strategic value always get follow-up.
	for _, cc := range result.Crossroads {
		if cc.StrategicValue != model.RiskHigh {
			continue
		}
		add(cc.ID, cc.Name, cc.AverageRiskScore, "", true)
		for _, rel := range cc.Relationships {
			add(cc.ID, cc.Name, cc.AverageRiskScore, rel, true)
		}
	}

	// HIGH-risk members of any relationship, subject to the risk floor.
	for _, d := range result.Details {
		for _, cu := range d.Customers {
			if cu.RiskLevel != model.RiskHigh {
				continue
			}
			if float64(cu.RiskScore) < minRisk {
				continue
			}
			add(cu.ID, cu.Name, float64(cu.RiskScore), d.Label, false)
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	// Highest risk first so a truncated task list keeps the urgent cases.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// TaskRecords maps candidates with a matching Salesforce contact onto Task
// records. Candidates without a contact come back in unmatched.
func TaskRecords(candidates []Candidate, contacts []salesforce.Contact, datasetName string) ([]map[string]any, []Candidate) {
	byEmail := make(map[string]salesforce.Contact, len(contacts))
	for _, c := range contacts {
		if c.Email != "" {
			byEmail[strings.ToLower(c.Email)] = c
		}
	}

	var records []map[string]any
	var unmatched []Candidate

	for _, cand := range candidates {
		contact, ok := byEmail[strings.ToLower(cand.Email)]
		if cand.Email == "" || !ok {
			unmatched = append(unmatched, cand)
			continue
		}

		rec := map[string]any{
			"Subject":     taskSubject(cand),
			"Priority":    taskPriority(cand.RiskScore),
			"Status":      "Not Started",
			"Description": taskDescription(cand, datasetName),
			"WhoId":       contact.ID,
		}
		if contact.AccountID != "" {
			rec["WhatId"] = contact.AccountID
		}
		records = append(records, rec)
	}
	return records, unmatched
}

func taskSubject(c Candidate) string {
	name := c.Name
	if name == "" {
		name = c.ID
	}
	if c.Crossroads {
		return fmt.Sprintf("Crossroads customer follow-up: %s", name)
	}
	return fmt.Sprintf("At-risk customer follow-up: %s", name)
}

// taskPriority maps the 0-100 risk score onto Salesforce task priority.
func taskPriority(risk float64) string {
	if risk >= 75 {
		return "High"
	}
	return "Normal"
}

func taskDescription(c Candidate, datasetName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dataset: %s\n", datasetName)
	fmt.Fprintf(&sb, "Risk score: %.0f\n", c.RiskScore)
	if c.Crossroads {
		sb.WriteString("Crossroads customer: under pressure from multiple boundaries at once.\n")
	}
	if len(c.Relationships) > 0 {
		sb.WriteString("Relationships:\n")
		for _, rel := range c.Relationships {
			fmt.Fprintf(&sb, "  - %s\n", rel)
		}
	}
	return sb.String()
}
