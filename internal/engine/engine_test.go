package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/plugins"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solc"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/solidity"
)

const reentrantBank = `pragma solidity ^0.7.0;
contract Bank {
    mapping(address => uint) balances;
    function withdraw(uint _amount) public {
        msg.sender.call{value:_amount}("");
        balances[msg.sender] -= _amount;
    }
}
`

func okCompiler() solc.Compiler {
	return solc.CompilerFunc(func(ctx context.Context, source string) (*solc.Artifact, error) {
		return &solc.Artifact{}, nil
	})
}

func failingCompiler(diag string) solc.Compiler {
	return solc.CompilerFunc(func(ctx context.Context, source string) (*solc.Artifact, error) {
		return nil, &solc.CompileError{Diagnostic: diag}
	})
}

func memFiles(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		src, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(src), nil
	}
}

func kindsOf(fs []model.Finding) []model.Kind {
	var out []model.Kind
	for _, f := range fs {
		out = append(out, f.Kind)
	}
	return out
}

func assertKinds(t *testing.T, fs []model.Finding, want ...model.Kind) {
	t.Helper()
	got := kindsOf(fs)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}
}

func TestScanFileCompileFailureContinues(t *testing.T) {
	e := New(
		WithCompiler(failingCompiler("ParserError: Expected ';'")),
		WithReadFile(memFiles(map[string]string{"Bank.sol": reentrantBank})),
	)
	res := e.ScanFile(context.Background(), "Bank.sol")

	assertKinds(t, res.Findings, model.KindCompileError, model.KindReentrancyOrderViolation)
	if res.Findings[0].Detail != "ParserError: Expected ';'" {
		t.Errorf("compiler diagnostic lost: %q", res.Findings[0].Detail)
	}
	if res.Findings[1].Function != 1 {
		t.Errorf("reentrancy finding at function %d, want 1", res.Findings[1].Function)
	}
	for _, f := range res.Findings {
		if f.File != "Bank.sol" || f.Fingerprint == "" || f.RuleID == "" {
			t.Errorf("finding not stamped: %+v", f)
		}
		if !strings.HasPrefix(f.ReportLine(), "Bank.sol: ") {
			t.Errorf("report line = %q", f.ReportLine())
		}
	}
}

func TestScanFileUnderflowOnly(t *testing.T) {
	e := New(
		WithCompiler(okCompiler()),
		WithReadFile(memFiles(map[string]string{"Token.sol": "totalSupply -= _amount;"})),
	)
	res := e.ScanFile(context.Background(), "Token.sol")
	assertKinds(t, res.Findings, model.KindUnderflowUnchecked)
}

func TestScanFileReadFailure(t *testing.T) {
	e := New(WithCompiler(okCompiler()), WithReadFile(memFiles(nil)))
	res := e.ScanFile(context.Background(), "missing.sol")
	assertKinds(t, res.Findings, model.KindAnalysisFailure)
	if !strings.Contains(res.Findings[0].Message, "Error while analyzing contract") {
		t.Errorf("message = %q", res.Findings[0].Message)
	}
}

func TestScanFileTransientCompilerError(t *testing.T) {
	compiler := solc.CompilerFunc(func(ctx context.Context, source string) (*solc.Artifact, error) {
		return nil, errors.New("exec: \"solc\": executable file not found in $PATH")
	})
	e := New(WithCompiler(compiler), WithReadFile(memFiles(map[string]string{"a.sol": "contract A {}"})))
	res := e.ScanFile(context.Background(), "a.sol")
	assertKinds(t, res.Findings, model.KindCompileError)
	if !strings.Contains(res.Findings[0].Detail, "executable file not found") {
		t.Errorf("detail = %q", res.Findings[0].Detail)
	}
}

// panicky reports every function and panics on the second one.
type panicky struct{}

func (panicky) ID() string          { return "panicky" }
func (panicky) Kinds() []model.Kind { return []model.Kind{model.KindReentrancyNoStateUpdate} }
func (panicky) AnalyzeFunction(fn solidity.Function) []model.Finding {
	if fn.Ordinal == 2 {
		panic("boom")
	}
	return []model.Finding{{Kind: model.KindReentrancyNoStateUpdate, RuleID: "X", Function: fn.Ordinal, Message: "seen"}}
}

func TestScanFileRecoversPanics(t *testing.T) {
	reg := plugins.NewRegistry()
	reg.Register(panicky{})
	src := "function a() public { } function b() public { } function c() public { }"
	e := New(
		WithRegistry(reg),
		WithCompiler(okCompiler()),
		WithReadFile(memFiles(map[string]string{"p.sol": src})),
	)
	res := e.ScanFile(context.Background(), "p.sol")
	assertKinds(t, res.Findings, model.KindReentrancyNoStateUpdate, model.KindAnalysisFailure)
	if !strings.Contains(res.Findings[1].Message, "boom") {
		t.Errorf("failure message = %q", res.Findings[1].Message)
	}
}

type memSink struct{ got []model.ScanResult }

func (s *memSink) Append(res model.ScanResult) error {
	s.got = append(s.got, res)
	return nil
}

func TestScanFileNamesFunctionsByABISignature(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"withdraw","inputs":[{"name":"_amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"}]`))
	if err != nil {
		t.Fatal(err)
	}
	compiler := solc.CompilerFunc(func(ctx context.Context, source string) (*solc.Artifact, error) {
		return &solc.Artifact{Contracts: []solc.Contract{{Name: "Bank", ABI: parsed}}}, nil
	})
	e := New(WithCompiler(compiler), WithReadFile(memFiles(map[string]string{"Bank.sol": reentrantBank})))
	res := e.ScanFile(context.Background(), "Bank.sol")

	assertKinds(t, res.Findings, model.KindReentrancyOrderViolation)
	if got := res.Findings[0].Entity; got != "withdraw(uint256)" {
		t.Errorf("entity = %q, want withdraw(uint256)", got)
	}

	// without an ABI the extracted name stays
	e = New(WithCompiler(okCompiler()), WithReadFile(memFiles(map[string]string{"Bank.sol": reentrantBank})))
	if got := e.ScanFile(context.Background(), "Bank.sol").Findings[0].Entity; got != "withdraw" {
		t.Errorf("entity = %q, want withdraw", got)
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b/Bank.sol":               reentrantBank,
		"a/Token.sol":              "contract T { function burn(uint _amount) public { totalSupply -= _amount; } }",
		"a/Clean.sol":              "contract C { function f() public { } }",
		"README.md":                "function x() public { msg.sender.transfer(1); }",
		"node_modules/lib/Lib.sol": "contract L { function f() public { i++; } }",
	})
	sink := &memSink{}
	e := New(WithCompiler(okCompiler()), WithSink(sink))

	run, err := e.Scan(context.Background(), model.ScanRequest{Path: root, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, f := range run.Files {
		rel, _ := filepath.Rel(root, f.Path)
		paths = append(paths, filepath.ToSlash(rel))
	}
	want := []string{"a/Clean.sol", "a/Token.sol", "b/Bank.sol"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v, want %v", paths, want)
	}
	assertKinds(t, run.Files[0].Findings)
	assertKinds(t, run.Files[1].Findings, model.KindUnderflowUnchecked)
	assertKinds(t, run.Files[2].Findings, model.KindReentrancyOrderViolation)

	if len(sink.got) != 3 || sink.got[2].Path != run.Files[2].Path {
		t.Errorf("sink received %d results out of order", len(sink.got))
	}
	if len(run.Findings()) != 2 {
		t.Errorf("flattened findings = %d", len(run.Findings()))
	}
}

func TestScanSingleFile(t *testing.T) {
	root := writeTree(t, map[string]string{"Bank.sol": reentrantBank})
	e := New(WithCompiler(okCompiler()))
	run, err := e.Scan(context.Background(), model.ScanRequest{Path: filepath.Join(root, "Bank.sol")})
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Files) != 1 {
		t.Fatalf("files = %d", len(run.Files))
	}
}

func TestScanWarnsOnUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs a directory the current user cannot read")
	}
	root := writeTree(t, map[string]string{
		"A.sol":        "contract A {}",
		"locked/B.sol": "contract B {}",
	})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	run, err := New(WithCompiler(okCompiler())).Scan(context.Background(), model.ScanRequest{Path: root, Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(run.Files) != 1 || filepath.Base(run.Files[0].Path) != "A.sol" {
		t.Errorf("files = %+v", run.Files)
	}
	if !strings.Contains(buf.String(), "[WARN] skipping "+locked) {
		t.Errorf("log = %q", buf.String())
	}
}

func TestScanMissingRoot(t *testing.T) {
	e := New(WithCompiler(okCompiler()))
	if _, err := e.Scan(context.Background(), model.ScanRequest{Path: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestScanFilters(t *testing.T) {
	mixed := `contract M {
    function pay() public { msg.sender.transfer(1); }
    function add() internal { x = 1 + 2; }
}`
	suppressed := "// solaudit:ignore SOL-REENTRANCY-NO-UPDATE reason=\"pull payments\"\n" + mixed

	tests := []struct {
		name     string
		files    map[string]string
		cfg      func(*config.Config)
		baseline func(fs []model.Finding) []model.Finding
		want     []model.Kind
	}{
		{
			name:  "no filters",
			files: map[string]string{"M.sol": mixed},
			want:  []model.Kind{model.KindReentrancyNoStateUpdate, model.KindArithmeticUnchecked},
		},
		{
			name:  "severity threshold",
			files: map[string]string{"M.sol": mixed},
			cfg:   func(c *config.Config) { c.SeverityThreshold = "high" },
			want:  []model.Kind{model.KindReentrancyNoStateUpdate},
		},
		{
			name:  "rule allow-list",
			files: map[string]string{"M.sol": mixed},
			cfg:   func(c *config.Config) { c.Rules = []string{"sol-arithmetic-unchecked"} },
			want:  []model.Kind{model.KindArithmeticUnchecked},
		},
		{
			name:  "ignore by rule",
			files: map[string]string{"M.sol": mixed},
			cfg: func(c *config.Config) {
				c.Ignore = []config.IgnoreRule{{Rule: "SOL-ARITHMETIC-UNCHECKED"}}
			},
			want: []model.Kind{model.KindReentrancyNoStateUpdate},
		},
		{
			name:  "expired ignore is inert",
			files: map[string]string{"M.sol": mixed},
			cfg: func(c *config.Config) {
				c.Ignore = []config.IgnoreRule{{Rule: "SOL-ARITHMETIC-UNCHECKED", Expires: "2000-01-01"}}
			},
			want: []model.Kind{model.KindReentrancyNoStateUpdate, model.KindArithmeticUnchecked},
		},
		{
			name:  "inline suppression",
			files: map[string]string{"M.sol": suppressed},
			want:  []model.Kind{model.KindArithmeticUnchecked},
		},
		{
			name:  "baseline",
			files: map[string]string{"M.sol": mixed},
			baseline: func(fs []model.Finding) []model.Finding {
				var accepted []model.Finding
				for _, f := range fs {
					if f.Kind == model.KindArithmeticUnchecked {
						accepted = append(accepted, f)
					}
				}
				return accepted
			},
			want: []model.Kind{model.KindReentrancyNoStateUpdate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, tt.files)
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			opts := []Option{WithConfig(cfg), WithCompiler(okCompiler())}
			if tt.baseline != nil {
				first, err := New(opts...).Scan(context.Background(), model.ScanRequest{Path: root})
				if err != nil {
					t.Fatal(err)
				}
				opts = append(opts, WithBaseline(NewBaseline(tt.baseline(first.Findings()), time.Now())))
			}
			run, err := New(opts...).Scan(context.Background(), model.ScanRequest{Path: root})
			if err != nil {
				t.Fatal(err)
			}
			assertKinds(t, run.Findings(), tt.want...)
		})
	}
}

func TestIgnorePathPrefix(t *testing.T) {
	cfg := config.Default()
	cfg.Ignore = []config.IgnoreRule{{Path: "vendor/"}}
	fs := []model.Finding{{File: "vendor/Lib.sol", RuleID: "A"}, {File: "src/Lib.sol", RuleID: "A"}}
	out := applyIgnores(fs, cfg, time.Now())
	if len(out) != 1 || out[0].File != "src/Lib.sol" {
		t.Errorf("out = %+v", out)
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	fs := []model.Finding{{Fingerprint: "b", RuleID: "R"}, {Fingerprint: "a"}, {Fingerprint: "a"}, {}}
	if err := WriteBaseline(path, fs); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBaseline(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 2 || b.Entries[0].Fingerprint != "a" || b.Entries[1].Rule != "R" {
		t.Errorf("entries = %+v", b.Entries)
	}
	if out := filterByBaseline([]model.Finding{{Fingerprint: "a"}, {Fingerprint: "c"}}, b); len(out) != 1 || out[0].Fingerprint != "c" {
		t.Errorf("filtered = %+v", out)
	}
}

func TestLoadBaselineForms(t *testing.T) {
	for name, doc := range map[string]string{
		"bare array": `["x"]`,
		"document":   `{"generatedAt": "2026-01-02T00:00:00Z", "entries": [{"fingerprint": "x", "rule": "SOL-COMPILE"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "baseline.json")
			if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
				t.Fatal(err)
			}
			b, err := LoadBaseline(path)
			if err != nil {
				t.Fatal(err)
			}
			if !b.Has("x") || b.Has("y") {
				t.Errorf("baseline = %+v", b)
			}
		})
	}
	if _, err := LoadBaseline(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing baseline")
	}
}
