package risk

import (
	"cmp"
	"slices"
	"strings"

	"github.com/huangsam/historian/schema"
)

// Reason thresholds for evolution suggestions.
const reasonFactorThreshold = 0.5

// GenerateEvolutionLog suggests files with risk at or above the suggestion
// threshold and ranks every TODO by the risk of its file.
func GenerateEvolutionLog(rm schema.RiskMap, todos []schema.TodoItem) schema.EvolutionLog {
	suggestions := []schema.Suggestion{}
	for _, path := range sortedPaths(rm) {
		entry := rm[path]
		if entry.Risk < schema.SuggestionThreshold {
			continue
		}
		suggestions = append(suggestions, schema.Suggestion{File: path, Risk: entry.Risk, Reason: Reason(entry)})
	}

	priorities := make([]schema.TodoPriority, 0, len(todos))
	for _, todo := range todos {
		priorities = append(priorities, schema.TodoPriority{TodoItem: todo, Risk: rm[todo.File].Risk})
	}
	slices.SortStableFunc(priorities, func(a, b schema.TodoPriority) int {
		return cmp.Compare(b.Risk, a.Risk)
	})

	return schema.EvolutionLog{Suggestions: suggestions, TodoPriorities: priorities}
}

// Reason explains which factors push an entry's risk up.
func Reason(entry schema.RiskEntry) string {
	var reasons []string
	if entry.TestFactor > 0 {
		reasons = append(reasons, "missing tests")
	}
	if entry.CommitFactor > reasonFactorThreshold {
		reasons = append(reasons, "high churn")
	}
	if entry.TodoFactor > reasonFactorThreshold {
		reasons = append(reasons, "many TODOs")
	}
	if entry.FunctionFactor > reasonFactorThreshold {
		reasons = append(reasons, "frequent function edits")
	}
	if len(reasons) == 0 {
		return "elevated risk"
	}
	return strings.Join(reasons, ", ")
}
