package app

import (
	"github.com/spf13/cobra"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/cli"
)

func BuildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "solaudit",
		Short:         "Heuristic Solidity scanner for reentrancy and arithmetic risks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddCommands(root)
	return root
}
