package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/parquet"
)

// ExportRuns writes the run store to two Parquet files sharing the outputFile prefix.
func ExportRuns(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total file records: %d\n", status.TableSizes[fileRiskTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	fileRisk, err := store.GetAllFileRisk()
	if err != nil {
		return fmt.Errorf("failed to retrieve file risk: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	riskFile := outputFile + ".file_risk.parquet"
	if err := parquet.WriteFileRiskParquet(parquet.ConvertFileRiskRecords(fileRisk), riskFile); err != nil {
		return fmt.Errorf("failed to write file risk: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file risk records to: %s\n", len(fileRisk), riskFile)
	return nil
}
