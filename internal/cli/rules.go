package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/plugins"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rules", Short: "List available rules"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in rules and the detector emitting each",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := plugins.NewRegistry()
			reg.RegisterBuiltin()
			owner := map[model.Kind]string{
				model.KindCompileError:    "solc",
				model.KindAnalysisFailure: "engine",
			}
			for _, d := range reg.Detectors() {
				for _, k := range d.Kinds() {
					owner[k] = d.ID()
				}
			}
			for _, r := range model.Rules() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", r.ID, r.Severity, owner[r.Kind], r.Title)
			}
			return nil
		},
	})
	return cmd
}
