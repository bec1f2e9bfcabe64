package plugins

import (
	"fmt"
	"regexp"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solidity"
)

var (
	// .call{value: ...} or .transfer(...)
	reExternalCall = regexp.MustCompile(`(?i)\.(call\s*\{\s*value\s*:|transfer\s*\()`)
	// balances[msg.sender] += / -=
	reBalanceUpdate = regexp.MustCompile(`(?i)balances\s*\[\s*msg\.sender\s*\]\s*[-+]=`)
)

// solidityReentrancy flags functions whose external call is not preceded by a
// balance update (checks-effects-interactions).
//
// Only the first external call and the first balance update in a body are
// compared. A function with several call sites is judged by its first one.
type solidityReentrancy struct{}

func (d *solidityReentrancy) ID() string { return "solidity-reentrancy" }

func (d *solidityReentrancy) Kinds() []model.Kind {
	return []model.Kind{model.KindReentrancyNoStateUpdate, model.KindReentrancyOrderViolation}
}

func (d *solidityReentrancy) AnalyzeFunction(fn solidity.Function) []model.Finding {
	call := reExternalCall.FindStringIndex(fn.Body)
	if call == nil {
		return nil
	}
	update := reBalanceUpdate.FindStringIndex(fn.Body)
	var f model.Finding
	switch {
	case update == nil:
		f = newFinding(d.ID(), model.KindReentrancyNoStateUpdate, 0.6,
			fmt.Sprintf("Reentrancy warning in function %d: external call without a state update.", fn.Ordinal))
		f.Remediation = "Debit the caller's balance before transferring value, or guard the function with nonReentrant."
	case update[0] > call[0]:
		f = newFinding(d.ID(), model.KindReentrancyOrderViolation, 0.7,
			fmt.Sprintf("Reentrancy warning in function %d: external call happens before the state update.", fn.Ordinal))
		f.Remediation = "Move the balance update above the external call or add a ReentrancyGuard."
	default:
		return nil
	}
	f.Function = fn.Ordinal
	f.Entity = fn.Name
	return []model.Finding{f}
}
