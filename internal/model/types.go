package model

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) Severity {
	switch s {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func SeverityGTE(a, b Severity) bool {
	order := map[Severity]int{SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3, SeverityCritical: 4}
	return order[a] >= order[b]
}

// Kind classifies a finding.
type Kind string

const (
	KindCompileError             Kind = "compile-error"
	KindAnalysisFailure          Kind = "analysis-failure"
	KindReentrancyNoStateUpdate  Kind = "reentrancy-no-state-update"
	KindReentrancyOrderViolation Kind = "reentrancy-order-violation"
	KindUnderflowUnchecked       Kind = "underflow-unchecked"
	KindArithmeticUnchecked      Kind = "arithmetic-unchecked"
)

type RuleMeta struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	Severity   Severity `json:"severity"`
	Tags       []string `json:"tags"`
	References []string `json:"references"`
}

type Finding struct {
	Kind        Kind     `json:"kind"`
	RuleID      string   `json:"ruleId"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"`
	DetectorID  string   `json:"detectorId"`
	File        string   `json:"file"`
	Function    int      `json:"function,omitempty"` // 1-based ordinal, 0 for contract-wide findings
	Entity      string   `json:"entity,omitempty"`
	Message     string   `json:"message"`
	Detail      string   `json:"detail,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	References  []string `json:"references,omitempty"`
	Fingerprint string   `json:"fingerprint"`
}

// ReportLine renders the finding the way the text report stores it.
func (f Finding) ReportLine() string {
	return f.File + ": " + f.Message
}

type ScanRequest struct {
	Path       string
	ConfigPath string
	Workers    int
}

// ScanResult holds the findings of one file in emission order.
type ScanResult struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

type RunResult struct {
	Root    string        `json:"root"`
	Files   []ScanResult  `json:"files"`
	Elapsed time.Duration `json:"elapsed"`
}

// Findings flattens the run in file order.
func (r *RunResult) Findings() []Finding {
	var out []Finding
	for _, f := range r.Files {
		out = append(out, f.Findings...)
	}
	return out
}
