package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently recorded scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(".")
			if err != nil {
				return err
			}
			db := cfg.Database
			if dbPath != "" {
				db = config.Database{Driver: "sqlite", DSN: dbPath}
			}
			if db.Driver == "" && db.DSN == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No scan history database configured; pass --db or set database in .solaudit.yaml.")
				return nil
			}
			s, err := store.Open(db)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.RecentRuns(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "#%d  %s  %s  files=%d findings=%d elapsed=%s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Root, r.Files, len(r.Findings),
					time.Duration(r.ElapsedMs)*time.Millisecond)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}
