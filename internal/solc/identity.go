package solc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// BinaryIdentity describes the compiler binary at path by its resolved
// location, size and modification time. Replacing the binary in place, as
// solc-select does, changes the identity.
func BinaryIdentity(path string) string {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return path
	}
	if r, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = r
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return resolved
	}
	return fmt.Sprintf("%s|%d|%d", resolved, info.Size(), info.ModTime().UnixNano())
}
