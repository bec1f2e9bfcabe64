package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

type modelT struct {
	findings []model.Finding
	cursor   int
	expanded bool
}

func initialModel(findings []model.Finding) modelT { return modelT{findings: findings} }

func (m modelT) Init() tea.Cmd { return nil }

func (m modelT) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.findings)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.expanded = !m.expanded
	}
	return m, nil
}

func (m modelT) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Findings (%d)\n\n", len(m.findings))
	for i, f := range m.findings {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s [%s] %s\n", marker, f.RuleID, f.Severity, f.ReportLine())
		if i == m.cursor && m.expanded {
			if f.Detail != "" {
				fmt.Fprintf(&b, "      %s\n", strings.ReplaceAll(f.Detail, "\n", "\n      "))
			}
			if f.Remediation != "" {
				fmt.Fprintf(&b, "      fix: %s\n", f.Remediation)
			}
		}
	}
	b.WriteString("\n↑/↓ move  enter details  q quit\n")
	return b.String()
}

// Run launches an interactive list of findings.
func Run(findings []model.Finding) error {
	p := tea.NewProgram(initialModel(findings))
	_, err := p.Run()
	return err
}
