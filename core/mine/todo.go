package mine

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/funcrange"
	"github.com/huangsam/historian/schema"
)

// todoPattern matches a '#' or '//' comment that mentions TODO or FIXME as a word.
var todoPattern = regexp.MustCompile(`(?i)(#|//).*\b(TODO|FIXME)\b`)

// skipDirs are never descended into while scanning the working tree.
var skipDirs = map[string]struct{}{
	".git":         {},
	"venv":         {},
	".venv":        {},
	"node_modules": {},
	"__pycache__":  {},
	"vendor":       {},
}

// IsTodoLine reports whether a source line carries a TODO or FIXME comment.
func IsTodoLine(line string) bool {
	return todoPattern.MatchString(line)
}

// ScanTodos walks the working tree under root and returns every TODO/FIXME
// comment found in supported source files. Unreadable files are skipped.
func ScanTodos(root string, filter string, excludes []string) ([]schema.TodoItem, error) {
	todos := []schema.TodoItem{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !funcrange.IsSupported(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !contract.MatchesFilter(rel, filter) || contract.ShouldIgnore(rel, excludes) {
			return nil
		}
		todos = append(todos, scanFile(path, rel)...)
		return nil
	})
	return todos, err
}

func scanFile(path, rel string) []schema.TodoItem {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var items []schema.TodoItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if IsTodoLine(line) {
			items = append(items, schema.TodoItem{File: rel, Line: n, Text: strings.TrimSpace(line)})
		}
	}
	return items
}
