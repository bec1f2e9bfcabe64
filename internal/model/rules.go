package model

var catalog = []RuleMeta{
	{
		ID:       "SOL-COMPILE",
		Kind:     KindCompileError,
		Title:    "Contract does not compile",
		Severity: SeverityLow,
		Tags:     []string{"toolchain"},
	},
	{
		ID:       "SOL-ANALYSIS",
		Kind:     KindAnalysisFailure,
		Title:    "Contract could not be analyzed",
		Severity: SeverityLow,
		Tags:     []string{"toolchain"},
	},
	{
		ID:         "SOL-REENTRANCY-NO-UPDATE",
		Kind:       KindReentrancyNoStateUpdate,
		Title:      "External call without balance update",
		Severity:   SeverityHigh,
		Tags:       []string{"reentrancy"},
		References: []string{"SWC-107"},
	},
	{
		ID:         "SOL-REENTRANCY-ORDER",
		Kind:       KindReentrancyOrderViolation,
		Title:      "External call before state update",
		Severity:   SeverityHigh,
		Tags:       []string{"reentrancy"},
		References: []string{"SWC-107"},
	},
	{
		ID:         "SOL-UNDERFLOW-SUPPLY",
		Kind:       KindUnderflowUnchecked,
		Title:      "Unguarded totalSupply arithmetic",
		Severity:   SeverityHigh,
		Tags:       []string{"arithmetic"},
		References: []string{"SWC-101"},
	},
	{
		ID:         "SOL-ARITHMETIC-UNCHECKED",
		Kind:       KindArithmeticUnchecked,
		Title:      "Arithmetic without SafeMath or unchecked block",
		Severity:   SeverityMedium,
		Tags:       []string{"arithmetic"},
		References: []string{"SWC-101"},
	},
}

// Rules returns the rule catalog in a stable order.
func Rules() []RuleMeta {
	out := make([]RuleMeta, len(catalog))
	copy(out, catalog)
	return out
}

// RuleFor returns the catalog entry for k. Unknown kinds map to a low-severity rule named after the kind.
func RuleFor(k Kind) RuleMeta {
	for _, r := range catalog {
		if r.Kind == k {
			return r
		}
	}
	return RuleMeta{ID: string(k), Kind: k, Title: string(k), Severity: SeverityLow}
}
