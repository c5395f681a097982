// Package risk turns mined churn counts into normalized per-file risk scores.
package risk

import (
	"cmp"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/historian/internal/funcrange"
	"github.com/huangsam/historian/schema"
)

// Inputs are the raw per-file counts the risk model normalizes.
type Inputs struct {
	FileCommitCounts   map[string]int
	FunctionEditCounts map[string]int
	TodoCounts         map[string]int
	TestCandidates     []string // Paths searched for covering tests; nil searches the scored files
}

// InputsFromHistory projects the counts used for scoring out of a mining result.
func InputsFromHistory(ho *schema.HistoryOutput) Inputs {
	return Inputs{
		FileCommitCounts:   ho.FileCommitCounts,
		FunctionEditCounts: ho.FunctionEditCounts(),
		TodoCounts:         ho.TodoCounts(),
	}
}

// SourceFiles keeps the tracked files that have a supported extension.
func SourceFiles(tracked []string) []string {
	out := make([]string, 0, len(tracked))
	for _, f := range tracked {
		if funcrange.IsSupported(f) {
			out = append(out, f)
		}
	}
	return out
}

// ComputeRiskMap scores every file in files. Each factor is the file's count
// divided by the maximum of that metric, or 0 when the maximum is 0.
func ComputeRiskMap(files []string, in Inputs) schema.RiskMap {
	maxCommit := maxValue(in.FileCommitCounts)
	maxFunction := maxValue(in.FunctionEditCounts)
	maxTodo := maxValue(in.TodoCounts)

	candidates := in.TestCandidates
	if candidates == nil {
		candidates = files
	}

	rm := make(schema.RiskMap, len(files))
	for _, f := range files {
		commitFactor := ratio(in.FileCommitCounts[f], maxCommit)
		functionFactor := ratio(in.FunctionEditCounts[f], maxFunction)
		todoFactor := ratio(in.TodoCounts[f], maxTodo)
		testFactor := 1.0
		if HasTests(f, candidates) {
			testFactor = 0
		}
		rm[f] = schema.RiskEntry{
			CommitFactor:   Round3(commitFactor),
			FunctionFactor: Round3(functionFactor),
			TodoFactor:     Round3(todoFactor),
			TestFactor:     testFactor,
			Risk:           Round3((commitFactor + functionFactor + todoFactor + testFactor) / 4),
		}
	}
	return rm
}

// HasTests reports whether any file's base name contains both "test" and the
// extension-less base name of path. A test file therefore covers itself.
func HasTests(path string, files []string) bool {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, f := range files {
		name := filepath.Base(f)
		if strings.Contains(name, base) && strings.Contains(name, "test") {
			return true
		}
	}
	return false
}

// Round3 rounds half away from zero to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ratio(count, maxCount int) float64 {
	if maxCount == 0 {
		return 0
	}
	return float64(count) / float64(maxCount)
}

func maxValue(m map[string]int) int {
	best := 0
	for _, v := range m {
		best = max(best, v)
	}
	return best
}

// sortedPaths returns the keys of rm in lexical order.
func sortedPaths(rm schema.RiskMap) []string {
	paths := make([]string, 0, len(rm))
	for p := range rm {
		paths = append(paths, p)
	}
	slices.SortFunc(paths, cmp.Compare[string])
	return paths
}
