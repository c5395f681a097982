package core

import (
	"context"
	"fmt"

	"github.com/huangsam/historian/core/mine"
	"github.com/huangsam/historian/core/risk"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/outwriter"
	"github.com/huangsam/historian/internal/statefile"
	"github.com/huangsam/historian/schema"
)

// AnalysisOutput is the result of one mining and scoring pass.
type AnalysisOutput struct {
	History   *schema.HistoryOutput
	RiskMap   schema.RiskMap
	Report    schema.HistorianReport
	Evolution schema.EvolutionLog
}

// runAnalysis mines the repository and scores every tracked source file.
func runAnalysis(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*AnalysisOutput, error) {
	miner := mine.NewMiner(client, nil, mine.Options{PathFilter: cfg.PathFilter, Excludes: cfg.Excludes})

	// --- 1. History Phase (with caching) ---
	history, err := cachedHistory(ctx, cfg, client, mgr, miner)
	if err != nil {
		return nil, err
	}
	history, err = miner.WithTodos(history, cfg.RepoPath)
	if err != nil {
		return nil, err
	}

	// --- 2. Scoring Phase ---
	tracked, err := client.ListFiles(ctx, cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	// Covering tests may live outside --filter and --exclude
	inputs := risk.InputsFromHistory(history)
	inputs.TestCandidates = risk.SourceFiles(tracked)
	rm := risk.ComputeRiskMap(risk.SourceFiles(filterPaths(tracked, cfg)), inputs)

	return &AnalysisOutput{
		History:   history,
		RiskMap:   rm,
		Report:    history.BuildReport(),
		Evolution: risk.GenerateEvolutionLog(rm, history.Todos),
	}, nil
}

// filterPaths keeps the paths that pass --filter and --exclude.
func filterPaths(paths []string, cfg *contract.Config) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if contract.MatchesFilter(p, cfg.PathFilter) && !contract.ShouldIgnore(p, cfg.Excludes) {
			out = append(out, p)
		}
	}
	return out
}

// persistAnalysis writes the risk map, both report renderings and the evolution log.
func persistAnalysis(cfg *contract.Config, out *AnalysisOutput) error {
	if err := statefile.SaveRiskMap(cfg.StatePath(schema.RiskMapFile), out.RiskMap); err != nil {
		return err
	}
	if err := statefile.SaveJSON(cfg.StatePath(schema.ReportJSONFile), out.Report); err != nil {
		return err
	}
	report := outwriter.RenderReport(out.Report)
	if err := statefile.SaveBytes(cfg.StatePath(schema.ReportMarkdownFile), []byte(report)); err != nil {
		return err
	}
	return statefile.SaveJSON(cfg.StatePath(schema.EvolutionLogFile), out.Evolution)
}
