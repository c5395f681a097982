package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorPriority(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	assert.Equal(t, "HIGH", GetColorPriority(schema.HighPriority))
	assert.Equal(t, "MED", GetColorPriority(schema.MediumPriority))
	assert.Equal(t, "LOW", GetColorPriority(schema.LowPriority))
	assert.Equal(t, "Healing", GetColorStatus(schema.HealingStatus))
	assert.Equal(t, "Oscillating", GetColorStatus(schema.OscillatingStatus))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.json")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, path, f.Name())
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		expected bool
	}{
		{"no excludes", "main.go", nil, false},
		{"prefix match", "vendor/pkg/a.go", []string{"vendor/"}, true},
		{"nested prefix match", "web/node_modules/x.js", []string{"node_modules/"}, true},
		{"suffix match", "app.min.js", []string{".min.js"}, true},
		{"glob on base", "dir/file_gen.go", []string{"*_gen.go"}, true},
		{"substring match", "internal/legacy/a.py", []string{"legacy"}, true},
		{"no match", "core/risk.go", []string{"vendor/", ".min.js"}, false},
		{"blank pattern", "core/risk.go", []string{"  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestMatchesFilter(t *testing.T) {
	assert.True(t, MatchesFilter("core/a.go", ""))
	assert.True(t, MatchesFilter("core/a.go", "core/"))
	assert.False(t, MatchesFilter("cmd/a.go", "core/"))
}

func TestDBFilePaths(t *testing.T) {
	cache := GetCacheDBFilePath()
	runs := GetRunsDBFilePath()
	assert.True(t, strings.HasSuffix(cache, ".historian_cache.db"))
	assert.True(t, strings.HasSuffix(runs, ".historian_runs.db"))
	assert.NotEqual(t, cache, runs)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.go", TruncatePath("short.go", 20))
	assert.Equal(t, "...ng/path.go", TruncatePath("a/very/long/path.go", 13))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}
