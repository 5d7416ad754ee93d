package preprocessor

import (
	"os"
	"path/filepath"
)

// Resolver locates include and embed targets on disk. One is built per
// scan, so the directory of the file being scanned travels with the call
// instead of living on the shared catalog; concurrent scans over one
// catalog never step on each other.
type Resolver struct {
	CurrentDir string
	SearchDirs []string
}

// Resolve maps a raw operand to an existing file path. Quoted operands
// (system=false) try the current file's directory before the search
// directories; system operands consult the search directories alone,
// in registration order. The first candidate that opens for reading
// wins. A miss returns false and is not an error.
func (r Resolver) Resolve(raw string, system bool) (string, bool) {
	if raw == "" {
		return "", false
	}
	if filepath.IsAbs(raw) {
		if probe(raw) {
			return raw, true
		}
		return "", false
	}

	if !system && r.CurrentDir != "" {
		candidate := filepath.Join(r.CurrentDir, raw)
		if probe(candidate) {
			return candidate, true
		}
	}
	for _, dir := range r.SearchDirs {
		candidate := filepath.Join(dir, raw)
		if probe(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// probe checks that a path exists and opens for reading
func probe(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
