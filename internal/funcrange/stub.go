//go:build !cgo

package funcrange

import (
	"context"
	"errors"

	"github.com/huangsam/historian/schema"
)

// ErrNoCGO is returned when function extraction is unavailable due to missing CGO.
var ErrNoCGO = errors.New("function extraction requires CGO (tree-sitter)")

// IsAvailable reports whether tree-sitter grammars are compiled in.
func IsAvailable() bool { return false }

// Extractor is a stub for non-CGO builds.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract always fails without CGO, so every file is skipped.
func (e *Extractor) Extract(_ context.Context, _ string, _ []byte) ([]schema.FunctionRange, error) {
	return nil, ErrNoCGO
}
