package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// ChangeLabel is the kind of risk movement carried by a feedback event.
	ChangeLabel string

	// TrajectoryStatus is the long-term classification of a file's trajectory.
	TrajectoryStatus string

	// Priority is the textual bucket for a risk score.
	Priority string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All output modes supported.
const (
	CSVOut      OutputMode = "csv"
	TextOut     OutputMode = "text" // default
	JSONOut     OutputMode = "json"
	MarkdownOut OutputMode = "markdown"
)

// All change labels supported.
const (
	RiskUp   ChangeLabel = "risk_up"
	RiskDown ChangeLabel = "risk_down"
	Resolved ChangeLabel = "resolved"
	NoChange ChangeLabel = "none"
)

// All trajectory statuses supported.
const (
	ResolvedStatus    TrajectoryStatus = "Resolved"
	HealingStatus     TrajectoryStatus = "Healing"
	RegressingStatus  TrajectoryStatus = "Regressing"
	OscillatingStatus TrajectoryStatus = "Oscillating"
)

// Risk priorities.
const (
	HighPriority   Priority = "HIGH"
	MediumPriority Priority = "MED"
	LowPriority    Priority = "LOW"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:      {},
	TextOut:     {},
	JSONOut:     {},
	MarkdownOut: {},
}

// ValidChangeLabels lists all valid change labels.
var ValidChangeLabels = map[ChangeLabel]struct{}{
	RiskUp:   {},
	RiskDown: {},
	Resolved: {},
	NoChange: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Mining constants.
const (
	// HighChurnThreshold is the distinct-commit count at which a function is high churn.
	HighChurnThreshold = 3

	// HighChurnFileLimit caps the number of files listed as high churn in reports.
	HighChurnFileLimit = 10

	// EmptyTreeHash is the object id of git's empty tree, used as the parent of root commits.
	EmptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

	// MonthFormat keys the per-file monthly histogram.
	MonthFormat = "2006-01"
)

// Scoring constants.
const (
	// SuggestionThreshold is the minimum risk for an evolution suggestion.
	SuggestionThreshold = 0.6

	// HighPriorityThreshold is the minimum risk labeled HIGH.
	HighPriorityThreshold = 0.7

	// MediumPriorityThreshold is the minimum risk labeled MED.
	MediumPriorityThreshold = 0.4

	// DefaultStagnationRuns is the trailing window inspected by the scheduler.
	DefaultStagnationRuns = 3
)

// State file names under the state directory.
const (
	DefaultStateDir       = ".aether"
	RiskMapFile           = "risk_map.json"
	TrajectoryFile        = "trajectory.json"
	TrajectorySummaryFile = "trajectory_summary.md"
	FeedbackFile          = "feedback.json"
	EvolutionLogFile      = "evolution_log.json"
	ReportJSONFile        = "historian_report.json"
	ReportMarkdownFile    = "historian_report.md"
	RunStateFile          = "run_state.json"
)
