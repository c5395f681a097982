package schema

import "time"

// RunRecord represents a row from the historian_runs table.
type RunRecord struct {
	RunID          int64
	RunNumber      int32
	RepoPath       string
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	TotalFiles     int32
	ScheduledFiles int32
	ConfigParams   *string
}

// FileRiskRecord represents a row from the historian_file_risk table.
type FileRiskRecord struct {
	RunID             int64
	FilePath          string
	AnalysisTime      time.Time
	CommitCount       int32
	FunctionEditCount int32
	TodoCount         int32
	CommitFactor      float64
	FunctionFactor    float64
	TodoFactor        float64
	TestFactor        float64
	Risk              float64
	Priority          string
	Status            string
	Scheduled         bool
}

// FileRiskInput bundles what is recorded for one file in one run.
type FileRiskInput struct {
	AnalysisTime      time.Time
	CommitCount       int
	FunctionEditCount int
	TodoCount         int
	Entry             RiskEntry
	Status            TrajectoryStatus
	Scheduled         bool
}
