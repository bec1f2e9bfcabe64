package solc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sourceName is the virtual file name the source is submitted under.
const sourceName = "contract.sol"

type request struct {
	Language string                 `json:"language"`
	Sources  map[string]sourceEntry `json:"sources"`
	Settings requestSettings        `json:"settings"`
}

type sourceEntry struct {
	Content string `json:"content"`
}

type requestSettings struct {
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type outputError struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

type outputContract struct {
	ABI jsoniter.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
	} `json:"evm"`
}

type output struct {
	Errors    []outputError                        `json:"errors"`
	Contracts map[string]map[string]outputContract `json:"contracts"`
}

func newRequest(source string) request {
	return request{
		Language: "Solidity",
		Sources:  map[string]sourceEntry{sourceName: {Content: source}},
		Settings: requestSettings{OutputSelection: map[string]map[string][]string{
			"*": {"*": {"metadata", "evm.bytecode", "evm.deployedBytecode", "abi"}},
		}},
	}
}

// StandardJSON runs `solc --standard-json` as a subprocess.
type StandardJSON struct {
	Path    string
	Timeout time.Duration // zero means no limit
}

func NewStandardJSON(path string, timeout time.Duration) *StandardJSON {
	return &StandardJSON{Path: path, Timeout: timeout}
}

func (c *StandardJSON) Compile(ctx context.Context, source string) (*Artifact, error) {
	input, err := json.Marshal(newRequest(source))
	if err != nil {
		return nil, fmt.Errorf("encode solc input: %w", err)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	path := c.Path
	if path == "" {
		path = ResolvePath("")
	}
	cmd := exec.CommandContext(ctx, path, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("run %s: %w", path, ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", path, err)
		}
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, &CompileError{Diagnostic: diag}
	}
	return parseOutput(stdout.Bytes())
}

func parseOutput(raw []byte) (*Artifact, error) {
	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &CompileError{Diagnostic: "invalid compiler output: " + err.Error()}
	}
	art := &Artifact{}
	var errs []string
	for _, e := range out.Errors {
		msg := strings.TrimSpace(e.FormattedMessage)
		if msg == "" {
			msg = e.Type + ": " + e.Message
		}
		if strings.EqualFold(e.Severity, "error") {
			errs = append(errs, msg)
		} else {
			art.Warnings = append(art.Warnings, msg)
		}
	}
	if len(errs) > 0 {
		return nil, &CompileError{Diagnostic: strings.Join(errs, "\n")}
	}

	files := make([]string, 0, len(out.Contracts))
	for f := range out.Contracts {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		names := make([]string, 0, len(out.Contracts[f]))
		for n := range out.Contracts[f] {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			oc := out.Contracts[f][n]
			art.Contracts = append(art.Contracts, newContract(f, n, oc.ABI, oc.EVM.Bytecode.Object))
		}
	}
	return art, nil
}
