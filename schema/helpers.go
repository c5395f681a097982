package schema

import (
	"cmp"
	"slices"
)

// FunctionEditCounts sums the distinct commit counts of every function in each file.
func (ho *HistoryOutput) FunctionEditCounts() map[string]int {
	counts := make(map[string]int, len(ho.FunctionCommits))
	for file, funcs := range ho.FunctionCommits {
		total := 0
		for _, commits := range funcs {
			total += len(commits)
		}
		counts[file] = total
	}
	return counts
}

// TodoCounts returns the number of TODO/FIXME comments per file.
func (ho *HistoryOutput) TodoCounts() map[string]int {
	counts := make(map[string]int)
	for _, todo := range ho.Todos {
		counts[todo.File]++
	}
	return counts
}

// HighChurnFiles returns up to limit files ordered by commit count descending.
// Ties are broken by path so the order is stable.
func (ho *HistoryOutput) HighChurnFiles(limit int) []HighChurnFile {
	files := make([]HighChurnFile, 0, len(ho.FileCommitCounts))
	for f, c := range ho.FileCommitCounts {
		files = append(files, HighChurnFile{File: f, CommitCount: c})
	}
	slices.SortFunc(files, func(a, b HighChurnFile) int {
		if c := cmp.Compare(b.CommitCount, a.CommitCount); c != 0 {
			return c
		}
		return cmp.Compare(a.File, b.File)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files
}

// HighChurnFunctions returns functions whose distinct commit count reaches threshold.
func (ho *HistoryOutput) HighChurnFunctions(threshold int) []HighChurnFunction {
	var out []HighChurnFunction
	for file, funcs := range ho.FunctionCommits {
		for name, commits := range funcs {
			if len(commits) >= threshold {
				out = append(out, HighChurnFunction{File: file, Function: name, CommitCount: len(commits)})
			}
		}
	}
	slices.SortFunc(out, func(a, b HighChurnFunction) int {
		if c := cmp.Compare(b.CommitCount, a.CommitCount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.File, b.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Function, b.Function)
	})
	if out == nil {
		out = []HighChurnFunction{}
	}
	return out
}

// BuildReport projects the mining output into the persisted report shape.
func (ho *HistoryOutput) BuildReport() HistorianReport {
	return HistorianReport{
		HighChurnFiles:     ho.HighChurnFiles(HighChurnFileLimit),
		HighChurnFunctions: ho.HighChurnFunctions(HighChurnThreshold),
		Todos:              ho.Todos,
		TestFailures:       ho.TestFailures,
		TemporalChurn:      ho.TemporalChurn,
		FileCommitCounts:   ho.FileCommitCounts,
		FunctionEditCounts: ho.FunctionEditCounts(),
		TodoCounts:         ho.TodoCounts(),
	}
}

// GetPriority maps a risk score to its priority bucket.
func GetPriority(risk float64) Priority {
	switch {
	case risk >= HighPriorityThreshold:
		return HighPriority
	case risk >= MediumPriorityThreshold:
		return MediumPriority
	default:
		return LowPriority
	}
}

// EnrichRisk converts a risk map into rows sorted by risk descending, then path.
func EnrichRisk(rm RiskMap) []HeatmapRow {
	rows := make([]HeatmapRow, 0, len(rm))
	for path, entry := range rm {
		rows = append(rows, HeatmapRow{Path: path, RiskEntry: entry, Priority: GetPriority(entry.Risk)})
	}
	slices.SortFunc(rows, func(a, b HeatmapRow) int {
		if c := cmp.Compare(b.Risk, a.Risk); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	return rows
}
