package outwriter

import (
	"os"

	"github.com/huangsam/historian/internal/contract"
	"golang.org/x/term"
)

// Path column bounds for table output.
const (
	minPathWidth = 15
	maxPathWidth = 70
)

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and the width taken by the other columns.
func GetMaxTablePathWidth(cfg *contract.Config, fixedColumns int) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detected, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detected <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detected
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - fixedColumns - 20
	return min(max(available, minPathWidth), maxPathWidth)
}
