package schema

// RiskEntry is the normalized risk of a single file.
type RiskEntry struct {
	CommitFactor   float64 `json:"commit_factor"`
	FunctionFactor float64 `json:"function_factor"`
	TodoFactor     float64 `json:"todo_factor"`
	TestFactor     float64 `json:"test_factor"`
	Risk           float64 `json:"risk"`
}

// RiskMap maps a file path to its risk entry.
type RiskMap map[string]RiskEntry

// HeatmapRow is a risk entry enriched for display and export.
type HeatmapRow struct {
	Path string `json:"path"`
	RiskEntry
	Priority Priority `json:"priority"`
}

// Suggestion is an evolution hint for a file with elevated risk.
type Suggestion struct {
	File   string  `json:"file"`
	Risk   float64 `json:"risk"`
	Reason string  `json:"reason"`
}

// TodoPriority is a TODO annotated with the risk of its file.
type TodoPriority struct {
	TodoItem
	Risk float64 `json:"risk"`
}

// EvolutionLog groups the suggestions and prioritized TODOs of one analysis.
type EvolutionLog struct {
	Suggestions    []Suggestion   `json:"suggestions"`
	TodoPriorities []TodoPriority `json:"todo_priorities"`
}
