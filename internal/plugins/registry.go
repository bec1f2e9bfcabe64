package plugins

import (
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solidity"
)

// Detector is implemented by every registered check.
type Detector interface {
	ID() string
	Kinds() []model.Kind
}

// FunctionDetector inspects one function unit at a time.
type FunctionDetector interface {
	Detector
	AnalyzeFunction(fn solidity.Function) []model.Finding
}

// SourceDetector inspects the whole contract source once.
type SourceDetector interface {
	Detector
	AnalyzeSource(src string) []model.Finding
}

type Registry struct {
	detectors []Detector
}

func NewRegistry() *Registry { return &Registry{} }

// Register adds d. It must implement FunctionDetector or SourceDetector to be run.
func (r *Registry) Register(d Detector) { r.detectors = append(r.detectors, d) }

func (r *Registry) RegisterBuiltin() {
	r.Register(&solidityReentrancy{})
	r.Register(&solidityArithmetic{})
}

// Run applies every function detector to each unit in ordinal order, then
// every source detector once. The output order is deterministic.
func (r *Registry) Run(src string, fns []solidity.Function) []model.Finding {
	var out []model.Finding
	r.Each(src, fns, func(f model.Finding) { out = append(out, f) })
	return out
}

// Each is Run with findings handed to emit as they are produced.
func (r *Registry) Each(src string, fns []solidity.Function, emit func(model.Finding)) {
	for _, fn := range fns {
		for _, d := range r.detectors {
			if fd, ok := d.(FunctionDetector); ok {
				for _, f := range fd.AnalyzeFunction(fn) {
					emit(f)
				}
			}
		}
	}
	for _, d := range r.detectors {
		if sd, ok := d.(SourceDetector); ok {
			for _, f := range sd.AnalyzeSource(src) {
				emit(f)
			}
		}
	}
}

func (r *Registry) Detectors() []Detector { return r.detectors }

func newFinding(detectorID string, kind model.Kind, confidence float64, message string) model.Finding {
	rule := model.RuleFor(kind)
	return model.Finding{
		Kind:       kind,
		RuleID:     rule.ID,
		Severity:   rule.Severity,
		Confidence: confidence,
		DetectorID: detectorID,
		Message:    message,
		References: rule.References,
	}
}
