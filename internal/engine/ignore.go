package engine

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

// inlineMarker suppresses a rule for the whole file.
// Format: // solaudit:ignore RULE_ID reason="..."
const inlineMarker = "solaudit:ignore "

// applyIgnores filters findings based on config ignore rules
func applyIgnores(findings []model.Finding, cfg config.Config, now time.Time) []model.Finding {
	if len(cfg.Ignore) == 0 {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if isIgnored(f, cfg, now) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isIgnored(f model.Finding, cfg config.Config, now time.Time) bool {
	for _, ig := range cfg.Ignore {
		if ig.Expired(now) {
			continue
		}
		if ig.Rule != "" && !strings.EqualFold(ig.Rule, f.RuleID) {
			continue
		}
		if ig.Path != "" {
			if !strings.HasPrefix(filepath.ToSlash(f.File), filepath.ToSlash(ig.Path)) {
				continue
			}
		}
		return true
	}
	return false
}

// applyInlineSuppressions drops findings whose rule is named by a
// solaudit:ignore marker anywhere in the file.
func (e *Engine) applyInlineSuppressions(path string, findings []model.Finding) []model.Finding {
	if len(findings) == 0 {
		return findings
	}
	b, err := e.readFile(path)
	if err != nil {
		return findings
	}
	suppressed := suppressedRules(string(b))
	if len(suppressed) == 0 {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if suppressed[strings.ToUpper(f.RuleID)] {
			logger.Debug("%s: %s suppressed inline", path, f.RuleID)
			continue
		}
		out = append(out, f)
	}
	return out
}

func suppressedRules(content string) map[string]bool {
	rules := map[string]bool{}
	for {
		i := strings.Index(content, inlineMarker)
		if i < 0 {
			return rules
		}
		content = content[i+len(inlineMarker):]
		fields := strings.Fields(content)
		if len(fields) > 0 {
			rules[strings.ToUpper(fields[0])] = true
		}
	}
}
