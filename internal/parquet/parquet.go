// Package parquet exports run tracking data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/historian/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one pipeline run. It maps to the historian_runs table.
type Run struct {
	RunID          int64      `parquet:"run_id,snappy"`
	RunNumber      int32      `parquet:"run_number,snappy"`
	RepoPath       string     `parquet:"repo_path,snappy"`
	StartTime      time.Time  `parquet:"start_time,snappy"`
	EndTime        *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs  *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalFiles     int32      `parquet:"total_files,snappy"`
	ScheduledFiles int32      `parquet:"scheduled_files,snappy"`

	// ConfigParams contains the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileRisk is the outcome of one file in one run. It maps to the
// historian_file_risk table.
type FileRisk struct {
	RunID             int64     `parquet:"run_id,snappy"`
	FilePath          string    `parquet:"file_path,snappy"`
	AnalysisTime      time.Time `parquet:"analysis_time,snappy"`
	CommitCount       int32     `parquet:"commit_count,snappy"`
	FunctionEditCount int32     `parquet:"function_edit_count,snappy"`
	TodoCount         int32     `parquet:"todo_count,snappy"`
	CommitFactor      float64   `parquet:"commit_factor,snappy"`
	FunctionFactor    float64   `parquet:"function_factor,snappy"`
	TodoFactor        float64   `parquet:"todo_factor,snappy"`
	TestFactor        float64   `parquet:"test_factor,snappy"`
	Risk              float64   `parquet:"risk,snappy"`
	Priority          string    `parquet:"priority,snappy"`
	Status            string    `parquet:"status,snappy"`
	Scheduled         bool      `parquet:"scheduled,snappy"`
}

// writeRows writes rows to outputPath with a schema inferred from T.
func writeRows[T any](rows []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteFileRiskParquet writes file risk rows to a Parquet file.
func WriteFileRiskParquet(data []FileRisk, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertRunRecords converts store records for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:          r.RunID,
			RunNumber:      r.RunNumber,
			RepoPath:       r.RepoPath,
			StartTime:      r.StartTime,
			EndTime:        r.EndTime,
			RunDurationMs:  r.RunDurationMs,
			TotalFiles:     r.TotalFiles,
			ScheduledFiles: r.ScheduledFiles,
			ConfigParams:   r.ConfigParams,
		}
	}
	return result
}

// ConvertFileRiskRecords converts store records for Parquet export.
func ConvertFileRiskRecords(records []schema.FileRiskRecord) []FileRisk {
	result := make([]FileRisk, len(records))
	for i, r := range records {
		result[i] = FileRisk{
			RunID:             r.RunID,
			FilePath:          r.FilePath,
			AnalysisTime:      r.AnalysisTime,
			CommitCount:       r.CommitCount,
			FunctionEditCount: r.FunctionEditCount,
			TodoCount:         r.TodoCount,
			CommitFactor:      r.CommitFactor,
			FunctionFactor:    r.FunctionFactor,
			TodoFactor:        r.TodoFactor,
			TestFactor:        r.TestFactor,
			Risk:              r.Risk,
			Priority:          r.Priority,
			Status:            r.Status,
			Scheduled:         r.Scheduled,
		}
	}
	return result
}
