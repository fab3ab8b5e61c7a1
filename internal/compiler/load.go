package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/trasco/internal/ir"
)

// LoadFile reads a revision document, choosing the format by extension:
// .cue for CUE, .yaml or .yml for YAML.
func LoadFile(path string) (*ir.SchemaRevisionSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read revisions: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return CompileCUE(src, path)
	case ".yaml", ".yml":
		return ParseYAML(src, path)
	default:
		return nil, fmt.Errorf("unsupported revision document %q: expected .cue, .yaml or .yml", path)
	}
}
