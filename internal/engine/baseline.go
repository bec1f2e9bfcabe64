package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

// BaselineEntry records one accepted finding. Only Fingerprint is used for
// matching; Rule and File keep the file reviewable.
type BaselineEntry struct {
	Fingerprint string `json:"fingerprint"`
	Rule        string `json:"rule,omitempty"`
	File        string `json:"file,omitempty"`
}

// Baseline is a set of accepted findings.
type Baseline struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Entries     []BaselineEntry `json:"entries"`

	index map[string]struct{}
}

// NewBaseline builds a baseline from findings, sorted by fingerprint with
// duplicates and unfingerprinted findings dropped.
func NewBaseline(findings []model.Finding, at time.Time) Baseline {
	b := Baseline{GeneratedAt: at.UTC()}
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Fingerprint == "" || seen[f.Fingerprint] {
			continue
		}
		seen[f.Fingerprint] = true
		b.Entries = append(b.Entries, BaselineEntry{Fingerprint: f.Fingerprint, Rule: f.RuleID, File: f.File})
	}
	sort.Slice(b.Entries, func(i, j int) bool { return b.Entries[i].Fingerprint < b.Entries[j].Fingerprint })
	b.reindex()
	return b
}

func (b *Baseline) reindex() {
	b.index = make(map[string]struct{}, len(b.Entries))
	for _, e := range b.Entries {
		b.index[e.Fingerprint] = struct{}{}
	}
}

// Has reports whether fp is accepted.
func (b Baseline) Has(fp string) bool {
	_, ok := b.index[fp]
	return ok
}

// Len returns the number of accepted fingerprints.
func (b Baseline) Len() int { return len(b.index) }

// LoadBaseline reads a baseline document or a bare JSON array of
// fingerprints. An empty path yields an empty baseline.
func LoadBaseline(path string) (Baseline, error) {
	var b Baseline
	if path == "" {
		return b, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read baseline: %w", err)
	}
	var bare []string
	if err := json.Unmarshal(data, &bare); err == nil {
		for _, fp := range bare {
			b.Entries = append(b.Entries, BaselineEntry{Fingerprint: fp})
		}
	} else if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	b.reindex()
	return b, nil
}

// WriteBaseline records findings as accepted.
func WriteBaseline(path string, findings []model.Finding) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(NewBaseline(findings, time.Now()), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func filterByBaseline(findings []model.Finding, b Baseline) []model.Finding {
	if b.Len() == 0 {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if b.Has(f.Fingerprint) {
			continue
		}
		out = append(out, f)
	}
	return out
}
