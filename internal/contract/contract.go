// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/historian/schema"
)

// ErrNotRepository is returned when the analyzed path is not inside a Git work tree.
var ErrNotRepository = errors.New("not a git repository")

// GitClient defines the Git operations needed for history mining.
// This allows the core analysis logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its stdout.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// --- Reference Resolution ---

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path. It wraps ErrNotRepository on failure.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// --- History ---

	// ListCommits returns every commit reachable from HEAD, oldest first, with
	// the paths each one changed relative to its first parent.
	ListCommits(ctx context.Context, repoPath string) ([]schema.CommitRecord, error)

	// GetCommitPatch returns the unified diff of hash against parent.
	GetCommitPatch(ctx context.Context, repoPath string, parent string, hash string) ([]byte, error)

	// --- File State / Content ---

	// ShowBlob returns the content of path as of the given commit.
	ShowBlob(ctx context.Context, repoPath string, hash string, path string) ([]byte, error)

	// ListFiles returns every file tracked in the index.
	ListFiles(ctx context.Context, repoPath string) ([]string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetHistoryStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking pipeline runs and per-file risk.
type RunStore interface {
	// BeginRun creates a new run row and returns its unique ID
	BeginRun(runNumber int, repoPath string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalFiles int, scheduledFiles int) error

	// RecordFileRisk stores the risk and trajectory outcome of one file
	RecordFileRisk(runID int64, filePath string, input schema.FileRiskInput) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFileRisk returns every recorded file risk row
	GetAllFileRisk() ([]schema.FileRiskRecord, error)

	// Close closes the underlying connection
	Close() error
}
