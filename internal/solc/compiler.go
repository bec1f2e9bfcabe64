package solc

import (
	"bytes"
	"context"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/logger"
)

// EnvPath names the environment variable holding the solc binary location.
const EnvPath = "SOLC_PATH"

// Compiler turns contract source into a compilation verdict.
type Compiler interface {
	Compile(ctx context.Context, source string) (*Artifact, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, source string) (*Artifact, error)

func (f CompilerFunc) Compile(ctx context.Context, source string) (*Artifact, error) {
	return f(ctx, source)
}

// CompileError is returned when the compiler rejects the source.
type CompileError struct {
	Diagnostic string
}

func (e *CompileError) Error() string {
	if e.Diagnostic == "" {
		return "solc: compilation failed"
	}
	return "solc: compilation failed: " + e.Diagnostic
}

type Contract struct {
	Source   string  `json:"source"`
	Name     string  `json:"name"`
	RawABI   []byte  `json:"abi,omitempty"`
	ABI      abi.ABI `json:"-"`
	Bytecode string  `json:"bytecode,omitempty"`
}

// Artifact is the successful result of a compilation.
type Artifact struct {
	Contracts []Contract `json:"contracts"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// MethodCount sums the ABI methods over all contracts.
func (a *Artifact) MethodCount() int {
	n := 0
	for _, c := range a.Contracts {
		n += len(c.ABI.Methods)
	}
	return n
}

// MethodSignature returns the canonical signature, e.g. "withdraw(uint256)",
// of the method named name. It reports false when no contract declares it or
// when the name is overloaded.
func (a *Artifact) MethodSignature(name string) (string, bool) {
	sig := ""
	for _, c := range a.Contracts {
		for _, m := range c.ABI.Methods {
			if m.RawName != name {
				continue
			}
			if sig != "" && sig != m.Sig {
				return "", false
			}
			sig = m.Sig
		}
	}
	return sig, sig != ""
}

// newContract keeps rawABI as is. An ABI go-ethereum cannot decode leaves
// ABI empty; the compilation itself still succeeded.
func newContract(source, name string, rawABI []byte, bytecode string) Contract {
	c := Contract{Source: source, Name: name, RawABI: rawABI, Bytecode: bytecode}
	if len(bytes.TrimSpace(rawABI)) == 0 || string(rawABI) == "null" {
		return c
	}
	parsed, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		logger.Warn("cannot decode abi of %s: %v", name, err)
		return c
	}
	c.ABI = parsed
	return c
}

// ResolvePath picks the solc binary: $SOLC_PATH, then configured, then "solc" from PATH.
func ResolvePath(configured string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	if configured != "" {
		return configured
	}
	return "solc"
}
