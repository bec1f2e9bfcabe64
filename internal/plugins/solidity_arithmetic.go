package plugins

import (
	"regexp"
	"strings"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

var (
	reSupplyUpdate = regexp.MustCompile(`(?i)totalSupply\s*[-+]=\s*([A-Za-z_]\w*)`)
	reSupplyGuard  = regexp.MustCompile(`(?i)require\s*\(\s*totalSupply\s*>=\s*([A-Za-z_]\w*)\s*,`)

	// Tried in order; the first hit decides.
	arithmeticPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+\+|--`),
		regexp.MustCompile(`\d+\s*\+\s*\d+`),
		regexp.MustCompile(`\d+\s*-\s*\d+`),
		regexp.MustCompile(`\d+\s*\*\s*\d+`),
	}

	safeArithmeticMarkers = []string{"SafeMath", "unchecked"}
)

// solidityArithmetic reports contract-wide arithmetic risk. The totalSupply
// underflow check takes precedence: when it fires the generic check is skipped.
type solidityArithmetic struct{}

func (d *solidityArithmetic) ID() string { return "solidity-arithmetic" }

func (d *solidityArithmetic) Kinds() []model.Kind {
	return []model.Kind{model.KindUnderflowUnchecked, model.KindArithmeticUnchecked}
}

func (d *solidityArithmetic) AnalyzeSource(src string) []model.Finding {
	if amount, ok := unguardedSupplyUpdate(src); ok {
		f := newFinding(d.ID(), model.KindUnderflowUnchecked, 0.75,
			"Underflow warning: arithmetic on totalSupply without a require check.")
		f.Detail = "unguarded amount: " + amount
		f.Remediation = "Add require(totalSupply >= " + amount + ", ...) before updating totalSupply."
		return []model.Finding{f}
	}
	for _, marker := range safeArithmeticMarkers {
		if strings.Contains(src, marker) {
			return nil
		}
	}
	for _, re := range arithmeticPatterns {
		if re.MatchString(src) {
			f := newFinding(d.ID(), model.KindArithmeticUnchecked, 0.4,
				"Overflow/Underflow warning: direct arithmetic without SafeMath or unchecked.")
			f.Detail = "matched pattern " + re.String()
			f.Remediation = "Use Solidity >=0.8 checked arithmetic, SafeMath, or an explicit unchecked block where wrapping is intended."
			return []model.Finding{f}
		}
	}
	return nil
}

// unguardedSupplyUpdate reports the first amount applied to totalSupply that
// has no matching require(totalSupply >= amount, ...) anywhere in src.
func unguardedSupplyUpdate(src string) (string, bool) {
	updates := reSupplyUpdate.FindAllStringSubmatch(src, -1)
	if len(updates) == 0 {
		return "", false
	}
	// names compare case-insensitively, like the rest of the pattern
	guarded := make(map[string]bool)
	for _, m := range reSupplyGuard.FindAllStringSubmatch(src, -1) {
		guarded[strings.ToLower(m[1])] = true
	}
	for _, m := range updates {
		if !guarded[strings.ToLower(m[1])] {
			return m[1], true
		}
	}
	return "", false
}
