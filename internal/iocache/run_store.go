package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
)

// Table names for run tracking.
const (
	runsTable     = "historian_runs"
	fileRiskTable = "historian_file_risk"
)

// RunStoreImpl records pipeline runs and the per-file risk seen in each one.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetRunsDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("run store: %w", err)
	}

	for _, q := range []string{runsTableQuery(backend), fileRiskTableQuery(backend)} {
		if _, err := db.Exec(q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create run tables: %w", err)
		}
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

func runsTableQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_number INT NOT NULL,
				repo_path VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				scheduled_files INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_number INT NOT NULL,
				repo_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				scheduled_files INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_number INTEGER NOT NULL,
				repo_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_files INTEGER NOT NULL DEFAULT 0,
				scheduled_files INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

func fileRiskTableQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(fileRiskTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path VARCHAR(512) NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				commit_count INT NOT NULL,
				function_edit_count INT NOT NULL,
				todo_count INT NOT NULL,
				commit_factor DOUBLE NOT NULL,
				function_factor DOUBLE NOT NULL,
				todo_factor DOUBLE NOT NULL,
				test_factor DOUBLE NOT NULL,
				risk DOUBLE NOT NULL,
				priority VARCHAR(10) NOT NULL,
				status VARCHAR(20) NOT NULL,
				scheduled BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path TEXT NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				commit_count INT NOT NULL,
				function_edit_count INT NOT NULL,
				todo_count INT NOT NULL,
				commit_factor DOUBLE PRECISION NOT NULL,
				function_factor DOUBLE PRECISION NOT NULL,
				todo_factor DOUBLE PRECISION NOT NULL,
				test_factor DOUBLE PRECISION NOT NULL,
				risk DOUBLE PRECISION NOT NULL,
				priority TEXT NOT NULL,
				status TEXT NOT NULL,
				scheduled BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				analysis_time TEXT NOT NULL,
				commit_count INTEGER NOT NULL,
				function_edit_count INTEGER NOT NULL,
				todo_count INTEGER NOT NULL,
				commit_factor REAL NOT NULL,
				function_factor REAL NOT NULL,
				todo_factor REAL NOT NULL,
				test_factor REAL NOT NULL,
				risk REAL NOT NULL,
				priority TEXT NOT NULL,
				status TEXT NOT NULL,
				scheduled INTEGER NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)
	}
}

// BeginRun inserts a run row and returns its id. The none backend returns 0.
func (rs *RunStoreImpl) BeginRun(runNumber int, repoPath string, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_number, repo_path, start_time, config_params) VALUES (%s)`,
		quoteTableName(runsTable, rs.backend), placeholders(rs.backend, 1, 4))
	args := []any{runNumber, repoPath, formatTime(startTime, rs.backend), string(configJSON)}

	var runID int64
	if rs.backend == schema.PostgreSQLBackend {
		err = rs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var result sql.Result
		if result, err = rs.db.Exec(query, args...); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the run with its end time, duration and file counts.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalFiles int, scheduledFiles int) error {
	if rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	start := timeScanner{backend: rs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(rs.backend, 1, 1))
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	if startTime == nil {
		return fmt.Errorf("run %d has no start_time", runID)
	}

	var update string
	if rs.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_files = $3, scheduled_files = $4 WHERE run_id = $5`, quoted)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_files = ?, scheduled_files = ? WHERE run_id = ?`, quoted)
	}
	durationMs := endTime.Sub(*startTime).Milliseconds()
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, totalFiles, scheduledFiles, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordFileRisk stores the outcome of one file in one run.
func (rs *RunStoreImpl) RecordFileRisk(runID int64, filePath string, input schema.FileRiskInput) error {
	if rs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, file_path, analysis_time, commit_count, function_edit_count, todo_count,
		                commit_factor, function_factor, todo_factor, test_factor, risk, priority, status, scheduled)
		VALUES (%s)
	`, quoteTableName(fileRiskTable, rs.backend), placeholders(rs.backend, 1, 14))
	entry := input.Entry
	_, err := rs.db.Exec(query,
		runID, filePath, formatTime(input.AnalysisTime, rs.backend),
		input.CommitCount, input.FunctionEditCount, input.TodoCount,
		entry.CommitFactor, entry.FunctionFactor, entry.TodoFactor, entry.TestFactor, entry.Risk,
		string(schema.GetPriority(entry.Risk)), string(input.Status), input.Scheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file risk for %s: %w", filePath, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: rs.backend}
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldest := timeScanner{backend: rs.backend}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		lastTime, err := last.value()
		if err != nil {
			return status, err
		}
		oldestTime, err := oldest.value()
		if err != nil {
			return status, err
		}
		if lastTime != nil {
			status.LastRunTime = *lastTime
		}
		if oldestTime != nil {
			status.OldestRunTime = *oldestTime
		}

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", quoted))
		if err := row.Scan(&status.TotalFilesAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total files analyzed: %w", err)
		}
	}

	for _, table := range []string{runsTable, fileRiskTable} {
		var count int64
		row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves every run ordered by id.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_number, repo_path, start_time, end_time, run_duration_ms,
		total_files, scheduled_files, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: rs.backend}
		end := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, &record.RunNumber, &record.RepoPath, start.dest(), end.dest(),
			&record.RunDurationMs, &record.TotalFiles, &record.ScheduledFiles, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFileRisk retrieves every file risk row ordered by run and path.
func (rs *RunStoreImpl) GetAllFileRisk() ([]schema.FileRiskRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, analysis_time, commit_count, function_edit_count, todo_count,
		commit_factor, function_factor, todo_factor, test_factor, risk, priority, status, scheduled
		FROM %s ORDER BY run_id, file_path`, quoteTableName(fileRiskTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file risk: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileRiskRecord
	for rows.Next() {
		var record schema.FileRiskRecord
		at := timeScanner{backend: rs.backend}
		if err := rows.Scan(&record.RunID, &record.FilePath, at.dest(), &record.CommitCount,
			&record.FunctionEditCount, &record.TodoCount, &record.CommitFactor, &record.FunctionFactor,
			&record.TodoFactor, &record.TestFactor, &record.Risk, &record.Priority, &record.Status,
			&record.Scheduled); err != nil {
			return nil, fmt.Errorf("failed to scan file risk: %w", err)
		}
		analysisTime, err := at.value()
		if err != nil {
			return nil, err
		}
		if analysisTime != nil {
			record.AnalysisTime = *analysisTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file risk: %w", err)
	}
	return results, nil
}
