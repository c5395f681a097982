package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/huangsam/historian/schema"
)

// Separators for the ListCommits format. Control characters never appear in
// hashes or timestamps and are vanishingly rare in commit messages.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
	bodyEnd   = "\x1d"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout. Paths are printed
// verbatim so non-ASCII names match the working tree.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath, "-c", "core.quotePath=false"}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s failed in %q: %s", args[0], repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotRepository, contextPath, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListCommits implements the GitClient interface.
func (c *LocalGitClient) ListCommits(ctx context.Context, repoPath string) ([]schema.CommitRecord, error) {
	args := []string{
		"log",
		"--reverse",
		"--no-renames",
		"--diff-merges=first-parent",
		"--name-only",
		"--pretty=format:" + "%x1e%H%x1f%P%x1f%cI%x1f%B%x1d",
	}
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		if c.isUnborn(ctx, repoPath) {
			return []schema.CommitRecord{}, nil
		}
		return nil, err
	}
	return ParseCommitLog(string(out))
}

// isUnborn reports whether repoPath is a repository whose HEAD has no commit yet.
func (c *LocalGitClient) isUnborn(ctx context.Context, repoPath string) bool {
	if _, err := c.Run(ctx, repoPath, "rev-parse", "--git-dir"); err != nil {
		return false
	}
	_, err := c.Run(ctx, repoPath, "rev-parse", "--verify", "--quiet", "HEAD")
	return err != nil
}

// ParseCommitLog parses the output produced by the ListCommits format.
func ParseCommitLog(out string) ([]schema.CommitRecord, error) {
	var commits []schema.CommitRecord
	for record := range strings.SplitSeq(out, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		head, tail, found := strings.Cut(record, bodyEnd)
		if !found {
			return nil, fmt.Errorf("malformed commit record: missing body terminator")
		}
		fields := strings.SplitN(head, fieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed commit record: expected 4 fields, got %d", len(fields))
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid commit time for %s: %w", fields[0], err)
		}

		parent := schema.EmptyTreeHash
		if parents := strings.Fields(fields[1]); len(parents) > 0 {
			parent = parents[0]
		}

		files := []string{}
		for line := range strings.SplitSeq(tail, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				files = append(files, line)
			}
		}

		commits = append(commits, schema.CommitRecord{
			Hash:    strings.TrimSpace(fields[0]),
			Parent:  parent,
			Time:    ts,
			Message: strings.TrimRight(fields[3], "\n"),
			Files:   files,
		})
	}
	return commits, nil
}

// GetCommitPatch implements the GitClient interface.
func (c *LocalGitClient) GetCommitPatch(ctx context.Context, repoPath string, parent string, hash string) ([]byte, error) {
	args := []string{
		"diff",
		"--no-color",
		"--no-ext-diff",
		"--no-renames",
		parent, hash,
	}
	return c.Run(ctx, repoPath, args...)
}

// ShowBlob implements the GitClient interface.
func (c *LocalGitClient) ShowBlob(ctx context.Context, repoPath string, hash string, path string) ([]byte, error) {
	return c.Run(ctx, repoPath, "show", hash+":"+path)
}

// ListFiles implements the GitClient interface.
func (c *LocalGitClient) ListFiles(ctx context.Context, repoPath string) ([]string, error) {
	out, err := c.Run(ctx, repoPath, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	files := []string{}
	for name := range strings.SplitSeq(string(out), "\x00") {
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}
