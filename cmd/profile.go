package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/huangsam/historian/internal/contract"
)

// profiler writes <prefix>.cpu.prof and <prefix>.mem.prof around a command.
// Notices go to stderr so JSON and CSV on stdout stay clean.
type profiler struct {
	cfg     *contract.ProfileConfig
	cpuFile *os.File
}

func (p *profiler) start() error {
	if !p.cfg.Enabled || p.cpuFile != nil {
		return nil
	}
	f, err := os.Create(p.cfg.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	p.cpuFile = f
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", p.cfg.Prefix, p.cfg.Prefix)
	return err
}

func (p *profiler) stop(w io.Writer) error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	if err := p.cpuFile.Close(); err != nil {
		return fmt.Errorf("could not close CPU profile: %w", err)
	}
	p.cpuFile = nil

	memFile, err := os.Create(p.cfg.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(w, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", p.cfg.Prefix)
	return err
}
