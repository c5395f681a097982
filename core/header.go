package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/historian/internal/contract"
)

// headerLabel prefixes label with icon when emojis are enabled.
func headerLabel(cfg *contract.Config, icon, label string) string {
	if cfg.UseEmojis {
		return icon + " " + label
	}
	return label
}

// logPhaseHeader prints a concise, 2-line header for a phase to stderr.
func logPhaseHeader(ctx context.Context, cfg *contract.Config, phase string) {
	if shouldSuppressHeader(ctx) {
		return
	}
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}
	filter := cfg.PathFilter
	if filter == "" {
		filter = "all files"
	}

	// Line 1: The repository and phase
	_, _ = fmt.Fprintf(os.Stderr, "%s: %s (Phase: %s, Filter: %s)\n", headerLabel(cfg, "🔎", "Repo"), repoName, phase, filter)

	// Line 2: Where state is read and written
	_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", headerLabel(cfg, "📂", "State"), cfg.StateDir)
}

// logRunHeader prints which run id a trajectory or schedule pass is working on.
func logRunHeader(ctx context.Context, cfg *contract.Config, run int) {
	if shouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s: %d (stagnation window: %d)\n", headerLabel(cfg, "🔁", "Run"), run, cfg.StagnationRuns)
}
