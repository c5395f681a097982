package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/historian/schema"
)

// Color variables for console output.
var (
	HighColor     = color.New(color.FgRed, color.Bold) // HighColor represents standard danger.
	MediumColor   = color.New(color.FgYellow)          // MediumColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)            // LowColor represents informational / low-priority signal.
	HealingColor  = color.New(color.FgGreen)
	ResolvedColor = color.New(color.FgGreen, color.Bold)
	RegressColor  = color.New(color.FgMagenta, color.Bold)
)

// GetColorPriority returns a colored priority label for console output (table).
func GetColorPriority(p schema.Priority) string {
	text := string(p)
	switch p {
	case schema.HighPriority:
		return HighColor.Sprint(text)
	case schema.MediumPriority:
		return MediumColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// GetColorStatus returns a colored trajectory status for console output (table).
func GetColorStatus(s schema.TrajectoryStatus) string {
	text := string(s)
	switch s {
	case schema.ResolvedStatus:
		return ResolvedColor.Sprint(text)
	case schema.HealingStatus:
		return HealingColor.Sprint(text)
	case schema.RegressingStatus:
		return RegressColor.Sprint(text)
	default:
		return MediumColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix (extension) matches.
// A user can provide patterns like "vendor/", "node_modules/", "*.min.js".
func ShouldIgnore(path string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.ContainsAny(ex, "*?[") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, path); err == nil && ok {
				return true
			}
			if ok, err := filepath.Match(pat, filepath.Base(path)); err == nil && ok {
				return true
			}
			continue
		}

		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(path, ex) || strings.Contains(path, "/"+ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(path, ex) {
				return true
			}
		case strings.Contains(path, ex):
			return true
		}
	}
	return false
}

// MatchesFilter reports whether path passes the --filter prefix.
func MatchesFilter(path, filter string) bool {
	return filter == "" || strings.HasPrefix(path, filter)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".historian_cache.db"
	}
	return filepath.Join(homeDir, ".historian_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run tracking.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".historian_runs.db"
	}
	return filepath.Join(homeDir, ".historian_runs.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
