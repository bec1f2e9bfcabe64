package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/cache"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/engine"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/report"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solc"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/store"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/tui"
)

func AddCommands(root *cobra.Command) {
	root.AddCommand(newScanCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newHistoryCmd())
}

func newScanCmd() *cobra.Command {
	var (
		path          string
		configPath    string
		format        string
		failOn        string
		outputFile    string
		reportPath    string
		baselinePath  string
		writeBaseline string
		solcPath      string
		dbPath        string
		logFile       string
		workers       int
		useTUI        bool
		noCache       bool
		verbose       bool
	)
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan Solidity contracts for reentrancy and arithmetic risks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = "."
			}
			if err := config.LoadEnv("."); err != nil {
				return err
			}

			var (
				cfg config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, configPath, err = config.Load(path)
			}
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("report") {
				cfg.Report.Path = reportPath
			}
			if flags.Changed("solc") {
				cfg.Solc.Path = solcPath
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if noCache {
				cfg.Solc.Cache = false
			}
			if dbPath != "" {
				cfg.Database = config.Database{Driver: "sqlite", DSN: dbPath}
			}

			level := logger.ParseLevel(cfg.LogLevel)
			if verbose {
				level = logger.LevelDebug
			}
			logger.SetLevel(level)
			if logFile != "" {
				if err := logger.Init(logFile); err != nil {
					return err
				}
				defer logger.Close()
			}
			if configPath != "" {
				logger.Debug("using config %s", configPath)
			}

			opts := []engine.Option{engine.WithConfig(cfg), engine.WithCompiler(buildCompiler(cfg))}
			if cfg.Report.Path != "" {
				sink, err := report.NewTextSink(cfg.Report.Path)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithSink(sink))
			}
			if baselinePath != "" {
				b, err := engine.LoadBaseline(baselinePath)
				if err != nil {
					return err
				}
				opts = append(opts, engine.WithBaseline(b))
			}

			started := time.Now()
			result, err := engine.New(opts...).Scan(cmd.Context(), model.ScanRequest{Path: path, ConfigPath: configPath})
			if err != nil {
				return err
			}
			findings := result.Findings()

			if cfg.Database.Driver != "" || cfg.Database.DSN != "" {
				if err := saveRun(cfg.Database, result, started); err != nil {
					logger.Warn("failed to record scan history: %v", err)
				}
			}

			if useTUI {
				// TUI mode ignores format flags
				if err := tui.Run(findings); err != nil {
					return err
				}
			} else if err := render(cmd, format, outputFile, result); err != nil {
				return err
			}

			if writeBaseline != "" {
				if err := engine.WriteBaseline(writeBaseline, findings); err != nil {
					return err
				}
			}

			// simple fail-on behavior
			if failOn != "" {
				threshold := model.ParseSeverity(failOn)
				for _, f := range findings {
					if model.SeverityGTE(f.Severity, threshold) {
						return fmt.Errorf("fail-on threshold met: %s", f.Severity)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: search .solaudit.yaml upwards from the scan path)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text|json|sarif")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Write json/sarif output to file instead of stdout")
	cmd.Flags().StringVar(&reportPath, "report", "", "Text report path (default from config: reports/analysis_report.md; empty disables)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Fail if a finding of severity or higher is found (low|medium|high|critical)")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "Suppress findings whose fingerprints are in this baseline file")
	cmd.Flags().StringVar(&writeBaseline, "write-baseline", "", "Write a baseline file with finding fingerprints")
	cmd.Flags().StringVar(&solcPath, "solc", "", "solc binary (overridden by $SOLC_PATH)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Record the run in this sqlite database")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files scanned in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Render interactive TUI output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not reuse cached compiler verdicts")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func buildCompiler(cfg config.Config) solc.Compiler {
	path := solc.ResolvePath(cfg.Solc.Path)
	var c solc.Compiler = solc.NewStandardJSON(path, cfg.Solc.Timeout)
	if !cfg.Solc.Cache {
		return c
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		logger.Warn("compiler cache disabled: %v", err)
		return c
	}
	ch, err := cache.New(dir)
	if err != nil {
		logger.Warn("compiler cache disabled: %v", err)
		return c
	}
	return &solc.Cached{Inner: c, Cache: ch, Tag: "standard-json", Binary: path}
}

func saveRun(cfg config.Database, result *model.RunResult, started time.Time) error {
	s, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	id, err := s.SaveRun(result, started)
	if err != nil {
		return err
	}
	logger.Debug("recorded run %d", id)
	return nil
}

func render(cmd *cobra.Command, format, outputFile string, result *model.RunResult) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = report.ToJSON(result)
	case "sarif":
		data, err = report.ToSARIF(result.Findings())
	default:
		findings := result.Findings()
		fmt.Fprintf(cmd.OutOrStdout(), "Files: %d  Findings: %d (elapsed %s)\n", len(result.Files), len(findings), result.Elapsed.Round(time.Millisecond))
		for _, f := range findings {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] %s\n", f.RuleID, f.Severity, f.ReportLine())
		}
		return nil
	}
	if err != nil {
		return err
	}
	if outputFile != "" {
		return os.WriteFile(outputFile, data, 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
