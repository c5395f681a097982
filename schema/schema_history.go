// Package schema has the data types shared across mining, scoring and tracking.
package schema

import (
	"encoding/json"
	"slices"
	"time"
)

// CommitRecord is one commit read from history.
type CommitRecord struct {
	Hash    string    // Full commit hash
	Parent  string    // First parent hash, or EmptyTreeHash for a root commit
	Time    time.Time // Commit timestamp
	Message string    // Full commit message
	Files   []string  // Paths changed relative to Parent
}

// FunctionRange is the line span of one function in a file snapshot.
// Start and End are 1-based and inclusive.
type FunctionRange struct {
	File  string
	Name  string
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (fr FunctionRange) Contains(line int) bool {
	return fr.Start <= line && line <= fr.End
}

// CommitSet is a set of commit hashes. It encodes to JSON as a sorted list.
type CommitSet map[string]struct{}

// Add inserts a hash into the set.
func (cs CommitSet) Add(hash string) {
	cs[hash] = struct{}{}
}

// Sorted returns the hashes in lexical order.
func (cs CommitSet) Sorted() []string {
	out := make([]string, 0, len(cs))
	for h := range cs {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON implements json.Marshaler.
func (cs CommitSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler.
func (cs *CommitSet) UnmarshalJSON(data []byte) error {
	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return err
	}
	set := make(CommitSet, len(hashes))
	for _, h := range hashes {
		set.Add(h)
	}
	*cs = set
	return nil
}

// TodoItem is a TODO or FIXME comment found in the working tree.
type TodoItem struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// TestFailure is a commit whose message suggests a test failure or fix.
type TestFailure struct {
	Commit  string `json:"commit"`
	Message string `json:"message"`
}

// HistoryOutput is everything the miner extracts from one repository.
type HistoryOutput struct {
	FileCommitCounts map[string]int                  `json:"file_commit_counts"`
	FunctionCommits  map[string]map[string]CommitSet `json:"function_commits"` // file -> function -> hashes
	Todos            []TodoItem                      `json:"todos"`
	TestFailures     []TestFailure                   `json:"test_failures"`
	TemporalChurn    map[string]map[string]int       `json:"temporal_churn"` // file -> YYYY-MM -> commits
}

// NewHistoryOutput returns an empty output with all maps allocated.
func NewHistoryOutput() *HistoryOutput {
	return &HistoryOutput{
		FileCommitCounts: make(map[string]int),
		FunctionCommits:  make(map[string]map[string]CommitSet),
		Todos:            []TodoItem{},
		TestFailures:     []TestFailure{},
		TemporalChurn:    make(map[string]map[string]int),
	}
}

// HighChurnFile is a file ranked by commit count.
type HighChurnFile struct {
	File        string `json:"file"`
	CommitCount int    `json:"commit_count"`
}

// HighChurnFunction is a function touched by at least HighChurnThreshold commits.
type HighChurnFunction struct {
	File        string `json:"file"`
	Function    string `json:"function"`
	CommitCount int    `json:"commit_count"`
}

// HistorianReport is the persisted report of one mining pass.
type HistorianReport struct {
	HighChurnFiles     []HighChurnFile           `json:"high_churn_files"`
	HighChurnFunctions []HighChurnFunction       `json:"high_churn_functions"`
	Todos              []TodoItem                `json:"todos"`
	TestFailures       []TestFailure             `json:"test_failures"`
	TemporalChurn      map[string]map[string]int `json:"temporal_churn"`
	FileCommitCounts   map[string]int            `json:"file_commit_counts"`
	FunctionEditCounts map[string]int            `json:"function_edit_counts"`
	TodoCounts         map[string]int            `json:"todo_counts"`
}
