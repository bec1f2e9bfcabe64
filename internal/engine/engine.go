package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/plugins"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/report"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solc"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solidity"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/util"
)

type Engine struct {
	registry *plugins.Registry
	compiler solc.Compiler
	cfg      config.Config
	sink     report.Sink
	baseline Baseline
	readFile func(string) ([]byte, error)
	now      func() time.Time
}

type Option func(*Engine)

func WithConfig(cfg config.Config) Option { return func(e *Engine) { e.cfg = cfg } }

func WithCompiler(c solc.Compiler) Option { return func(e *Engine) { e.compiler = c } }

func WithSink(s report.Sink) Option { return func(e *Engine) { e.sink = s } }

func WithBaseline(b Baseline) Option { return func(e *Engine) { e.baseline = b } }

func WithRegistry(r *plugins.Registry) Option { return func(e *Engine) { e.registry = r } }

// WithReadFile replaces os.ReadFile as the source of contract text.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(e *Engine) { e.readFile = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{cfg: config.Default(), readFile: os.ReadFile, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	if e.registry == nil {
		e.registry = plugins.NewRegistry()
		e.registry.RegisterBuiltin()
	}
	if e.compiler == nil {
		e.compiler = solc.NewStandardJSON(solc.ResolvePath(e.cfg.Solc.Path), e.cfg.Solc.Timeout)
	}
	return e
}

// ScanFile analyzes one contract. It never fails: read errors, compiler
// failures and panics are all reported as findings. The order is the
// compiler verdict, then per-function findings by ordinal, then
// contract-wide findings.
func (e *Engine) ScanFile(ctx context.Context, path string) (res model.ScanResult) {
	res.Path = path
	emit := func(f model.Finding) {
		f.File = path
		f.Fingerprint = util.Fingerprint(f.RuleID, path, f.Function, string(f.Kind))
		res.Findings = append(res.Findings, f)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis of %s panicked: %v", path, r)
			emit(failure(fmt.Errorf("%v", r)))
		}
	}()

	b, err := e.readFile(path)
	if err != nil {
		logger.Error("Error scanning contract %s: %v", path, err)
		emit(failure(err))
		return res
	}
	src := string(b)
	logger.Debug("read contract from %s", path)

	art, err := e.compiler.Compile(ctx, src)
	if err != nil {
		logger.Error("solc failed for %s: %v", path, err)
		emit(compileFailure(err))
	} else if art != nil {
		logger.Debug("compiled %s: %d contract(s), %d method(s)", path, len(art.Contracts), art.MethodCount())
	}

	fns := solidity.ExtractFunctions(src)
	logger.Debug("found %d function(s) in %s", len(fns), path)
	e.registry.Each(src, fns, func(f model.Finding) {
		// name the function by its ABI signature when the compiler exposes it
		if art != nil && f.Function > 0 && f.Entity != "" {
			if sig, ok := art.MethodSignature(f.Entity); ok {
				f.Entity = sig
			}
		}
		emit(f)
	})
	return res
}

func failure(err error) model.Finding {
	rule := model.RuleFor(model.KindAnalysisFailure)
	return model.Finding{
		Kind:       model.KindAnalysisFailure,
		RuleID:     rule.ID,
		Severity:   rule.Severity,
		Confidence: 1,
		DetectorID: "engine",
		Message:    "Error while analyzing contract: " + err.Error(),
	}
}

func compileFailure(err error) model.Finding {
	rule := model.RuleFor(model.KindCompileError)
	detail := err.Error()
	var ce *solc.CompileError
	if errors.As(err, &ce) {
		detail = ce.Diagnostic
	}
	return model.Finding{
		Kind:       model.KindCompileError,
		RuleID:     rule.ID,
		Severity:   rule.Severity,
		Confidence: 1,
		DetectorID: "solc",
		Message:    "Error: contract could not be compiled.",
		Detail:     detail,
	}
}

// Scan analyzes every Solidity file under req.Path. Files are scanned
// concurrently but results, filtering and report output follow path order.
func (e *Engine) Scan(ctx context.Context, req model.ScanRequest) (*model.RunResult, error) {
	start := e.now()
	files, err := discoverFiles(req.Path)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = e.cfg.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]model.ScanResult, len(files))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			logger.Info("Analyzing %s...", file)
			results[i] = e.ScanFile(ctx, file)
			logger.Info("Completed analysis for %s", file)
			return nil
		})
	}
	_ = g.Wait()

	run := &model.RunResult{Root: req.Path, Files: results}
	for i := range run.Files {
		run.Files[i].Findings = e.filter(run.Files[i])
		if e.sink != nil {
			if err := e.sink.Append(run.Files[i]); err != nil {
				run.Elapsed = time.Since(start)
				return run, fmt.Errorf("write report: %w", err)
			}
		}
	}
	run.Elapsed = time.Since(start)
	return run, nil
}

func (e *Engine) filter(res model.ScanResult) []model.Finding {
	fs := applyIgnores(res.Findings, e.cfg, e.now())
	fs = e.applyInlineSuppressions(res.Path, fs)
	fs = filterByRules(fs, e.cfg)
	fs = filterBySeverity(fs, e.cfg)
	return filterByBaseline(fs, e.baseline)
}

// discoverFiles returns the .sol files under root in lexical order. A root
// naming a single file is returned as is.
func discoverFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && (d.Name() == ".git" || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".sol") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
