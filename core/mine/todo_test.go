package mine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTodoLine(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"# TODO: refactor", true},
		{"x = 1  # fixme later", true},
		{"// TODO(sam): split", true},
		{"\t// FIXME", true},
		{"TODO without marker", false},
		{"# TODOS are plural", false},
		{"# nothing to see", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsTodoLine(tt.line), tt.line)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScanTodos(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "import os\n# TODO: split\nx = 1  # FIXME\n")
	writeFile(t, root, "pkg/main.go", "package pkg\n\n// todo wire this\n")
	writeFile(t, root, "notes.txt", "# TODO not source\n")
	writeFile(t, root, "node_modules/dep/index.js", "// TODO skipped\n")
	writeFile(t, root, "venv/lib/site.py", "# TODO skipped\n")
	writeFile(t, root, "gen/out.py", "# TODO excluded\n")

	todos, err := ScanTodos(root, "", []string{"gen/"})
	require.NoError(t, err)
	assert.Equal(t, []schema.TodoItem{
		{File: "app.py", Line: 2, Text: "# TODO: split"},
		{File: "app.py", Line: 3, Text: "x = 1  # FIXME"},
		{File: "pkg/main.go", Line: 3, Text: "// todo wire this"},
	}, todos)

	filtered, err := ScanTodos(root, "pkg/", nil)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "pkg/main.go", filtered[0].File)
}
