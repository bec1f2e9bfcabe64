package report

import (
	"encoding/json"
	"fmt"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}
type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}
type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}
type sarifLoc struct {
	Physical sarifPhys      `json:"physicalLocation"`
	Logical  []sarifLogical `json:"logicalLocations,omitempty"`
}
type sarifPhys struct {
	ArtifactLocation sarifArt `json:"artifactLocation"`
}
type sarifArt struct {
	URI string `json:"uri"`
}

// Findings carry a function ordinal instead of a line range, so the
// function is reported as a logical location.
type sarifLogical struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func level(s model.Severity) string {
	switch s {
	case model.SeverityMedium:
		return "warning"
	case model.SeverityHigh, model.SeverityCritical:
		return "error"
	default:
		return "note"
	}
}

func ToSARIF(findings []model.Finding) ([]byte, error) {
	var rules []sarifRule
	for _, r := range model.Rules() {
		rules = append(rules, sarifRule{ID: r.ID, ShortDescription: sarifMessage{Text: r.Title}})
	}
	results := []sarifResult{}
	for _, f := range findings {
		loc := sarifLoc{Physical: sarifPhys{ArtifactLocation: sarifArt{URI: f.File}}}
		if f.Function > 0 {
			name := f.Entity
			if name == "" {
				name = fmt.Sprintf("function #%d", f.Function)
			}
			loc.Logical = []sarifLogical{{Name: name, Kind: "function"}}
		}
		res := sarifResult{
			RuleID:    f.RuleID,
			Level:     level(f.Severity),
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLoc{loc},
		}
		if f.Fingerprint != "" {
			res.PartialFingerprints = map[string]string{"solaudit/v1": f.Fingerprint}
		}
		results = append(results, res)
	}
	s := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{{Tool: sarifTool{Driver: sarifDriver{Name: "solaudit", Rules: rules}}, Results: results}},
	}
	return json.MarshalIndent(s, "", "  ")
}

// ToJSON renders a whole run.
func ToJSON(res *model.RunResult) ([]byte, error) {
	return json.MarshalIndent(res, "", "  ")
}
