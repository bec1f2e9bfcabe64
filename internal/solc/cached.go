package solc

import (
	"context"
	"errors"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/cache"
)

type verdict struct {
	OK         bool       `json:"ok"`
	Diagnostic string     `json:"diagnostic,omitempty"`
	Contracts  []Contract `json:"contracts,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// Cached memoizes compiler verdicts by source content. Only definite verdicts
// are stored; timeouts and start failures always reach Inner again.
type Cached struct {
	Inner Compiler
	Cache *cache.Cache
	Tag   string // distinguishes compilers
	// Binary, when set, is re-identified on every call so verdicts of a
	// replaced compiler are not reused.
	Binary string
}

func (c *Cached) Compile(ctx context.Context, source string) (*Artifact, error) {
	id := c.Tag
	if c.Binary != "" {
		id += "|" + BinaryIdentity(c.Binary)
	}
	key := cache.Key("solc-verdict-v2", id, source)
	if b, ok := c.Cache.Load(key); ok {
		var v verdict
		if err := json.Unmarshal(b, &v); err == nil {
			return v.restore()
		}
	}

	art, err := c.Inner.Compile(ctx, source)
	var ce *CompileError
	var v verdict
	switch {
	case err == nil:
		v = verdict{OK: true, Contracts: art.Contracts, Warnings: art.Warnings}
	case errors.As(err, &ce):
		v = verdict{Diagnostic: ce.Diagnostic}
	default:
		return nil, err
	}
	if data, mErr := json.Marshal(v); mErr == nil {
		_ = c.Cache.Store(key, data)
	}
	return art, err
}

func (v verdict) restore() (*Artifact, error) {
	if !v.OK {
		return nil, &CompileError{Diagnostic: v.Diagnostic}
	}
	art := &Artifact{Warnings: v.Warnings}
	for _, rc := range v.Contracts {
		art.Contracts = append(art.Contracts, newContract(rc.Source, rc.Name, rc.RawABI, rc.Bytecode))
	}
	return art, nil
}
