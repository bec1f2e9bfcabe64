package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// Fingerprint computes a stable hash for a finding key. function is the
// 1-based ordinal, or 0 for contract-wide findings.
func Fingerprint(ruleID, file string, function int, context string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%s", ruleID, filepath.ToSlash(file), function, context)
	return hex.EncodeToString(h.Sum(nil))
}
