// Package mine walks commit history and extracts churn signals per file and function.
package mine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/funcrange"
	"github.com/huangsam/historian/schema"
)

// RangeExtractor returns the function ranges of a source snapshot.
type RangeExtractor interface {
	Extract(ctx context.Context, path string, src []byte) ([]schema.FunctionRange, error)
}

// CommitDelta is everything one commit contributes to the history output.
type CommitDelta struct {
	Hash         string
	Month        string
	Files        []string            // Changed paths that pass the filters
	FunctionHits map[string][]string // file -> functions containing a changed line
	TestFailure  *schema.TestFailure
}

// Options control which paths the miner considers.
type Options struct {
	PathFilter string
	Excludes   []string
}

// Miner extracts a HistoryOutput from a repository.
type Miner struct {
	client    contract.GitClient
	extractor RangeExtractor
	opts      Options
}

// NewMiner creates a miner. A nil extractor uses the tree-sitter extractor.
func NewMiner(client contract.GitClient, extractor RangeExtractor, opts Options) *Miner {
	if extractor == nil {
		extractor = funcrange.NewExtractor()
	}
	return &Miner{client: client, extractor: extractor, opts: opts}
}

// Mine walks every commit of repoPath and scans its working tree for TODOs.
// Any git failure during the walk aborts mining.
func (m *Miner) Mine(ctx context.Context, repoPath string) (*schema.HistoryOutput, error) {
	out, err := m.MineCommits(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return m.WithTodos(out, repoPath)
}

// MineCommits folds the history reachable from HEAD. The result carries no TODOs.
func (m *Miner) MineCommits(ctx context.Context, repoPath string) (*schema.HistoryOutput, error) {
	commits, err := m.client.ListCommits(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}

	deltas := make([]CommitDelta, 0, len(commits))
	for _, commit := range commits {
		delta, err := m.Delta(ctx, repoPath, commit)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, delta)
	}
	return Fold(deltas), nil
}

// WithTodos scans the working tree of repoPath and attaches the TODOs to out.
func (m *Miner) WithTodos(out *schema.HistoryOutput, repoPath string) (*schema.HistoryOutput, error) {
	todos, err := ScanTodos(repoPath, m.opts.PathFilter, m.opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("scan todos: %w", err)
	}
	out.Todos = todos
	return out, nil
}

// Delta computes what a single commit contributes. Blobs that cannot be read
// or parsed are skipped.
func (m *Miner) Delta(ctx context.Context, repoPath string, commit schema.CommitRecord) (CommitDelta, error) {
	delta := CommitDelta{
		Hash:         commit.Hash,
		Month:        commit.Time.Format(schema.MonthFormat),
		Files:        []string{},
		FunctionHits: map[string][]string{},
		TestFailure:  DetectTestFailure(commit),
	}

	needsPatch := false
	for _, f := range commit.Files {
		if !m.accepts(f) {
			continue
		}
		delta.Files = append(delta.Files, f)
		if funcrange.IsSupported(f) {
			needsPatch = true
		}
	}
	if !needsPatch {
		return delta, nil
	}

	patch, err := m.client.GetCommitPatch(ctx, repoPath, commit.Parent, commit.Hash)
	if err != nil {
		return CommitDelta{}, fmt.Errorf("diff %s: %w", commit.Hash, err)
	}
	changed, err := ChangedLines(patch)
	if err != nil {
		return CommitDelta{}, fmt.Errorf("diff %s: %w", commit.Hash, err)
	}

	for path, lines := range changed {
		if len(lines) == 0 || !funcrange.IsSupported(path) || !m.accepts(path) {
			continue
		}
		src, err := m.client.ShowBlob(ctx, repoPath, commit.Hash, path)
		if err != nil {
			continue // deleted in this commit
		}
		ranges, err := m.extractor.Extract(ctx, path, src)
		if err != nil {
			continue
		}
		if hits := FunctionsTouched(ranges, lines); len(hits) > 0 {
			delta.FunctionHits[path] = hits
		}
	}
	return delta, nil
}

func (m *Miner) accepts(path string) bool {
	return contract.MatchesFilter(path, m.opts.PathFilter) && !contract.ShouldIgnore(path, m.opts.Excludes)
}

// FunctionsTouched returns the sorted names of every range containing at least one line.
func FunctionsTouched(ranges []schema.FunctionRange, lines []int) []string {
	seen := make(map[string]struct{})
	for _, line := range lines {
		for _, fr := range ranges {
			if fr.Contains(line) {
				seen[fr.Name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// DetectTestFailure flags commits whose message mentions a test together with
// a failure, fix or breakage.
func DetectTestFailure(commit schema.CommitRecord) *schema.TestFailure {
	msg := strings.ToLower(commit.Message)
	if !strings.Contains(msg, "test") {
		return nil
	}
	if strings.Contains(msg, "fail") || strings.Contains(msg, "fix") || strings.Contains(msg, "broken") {
		return &schema.TestFailure{Commit: commit.Hash, Message: strings.TrimSpace(commit.Message)}
	}
	return nil
}

// Fold combines commit deltas into a fresh HistoryOutput. The deltas are not modified.
func Fold(deltas []CommitDelta) *schema.HistoryOutput {
	state := schema.NewHistoryOutput()
	for _, d := range deltas {
		state = Accumulate(state, d)
	}
	return state
}

// Accumulate adds one delta to state and returns it. Only the accumulator
// owned by the caller is updated; the delta is read-only.
func Accumulate(state *schema.HistoryOutput, d CommitDelta) *schema.HistoryOutput {
	for _, f := range d.Files {
		state.FileCommitCounts[f]++
		months, ok := state.TemporalChurn[f]
		if !ok {
			months = make(map[string]int)
			state.TemporalChurn[f] = months
		}
		months[d.Month]++
	}
	for file, funcs := range d.FunctionHits {
		byFunc, ok := state.FunctionCommits[file]
		if !ok {
			byFunc = make(map[string]schema.CommitSet)
			state.FunctionCommits[file] = byFunc
		}
		for _, fn := range funcs {
			set, ok := byFunc[fn]
			if !ok {
				set = schema.CommitSet{}
				byFunc[fn] = set
			}
			set.Add(d.Hash)
		}
	}
	if d.TestFailure != nil {
		state.TestFailures = append(state.TestFailures, *d.TestFailure)
	}
	return state
}
