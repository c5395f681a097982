package contract

import "testing"

// FuzzParseCommitLog fuzzes the commit log parser with random output.
func FuzzParseCommitLog(f *testing.F) {
	f.Add("")
	f.Add("\x1eaaa\x1f\x1f2024-01-02T03:04:05Z\x1finitial\n\x1d\nmain.py\n")
	f.Add("\x1eaaa\x1fno terminator")
	f.Add("\x1e\x1e\x1d")

	f.Fuzz(func(t *testing.T, out string) {
		commits, err := ParseCommitLog(out)
		if err != nil {
			return
		}
		for _, c := range commits {
			if c.Parent == "" {
				t.Errorf("commit %q has no parent", c.Hash)
			}
		}
	})
}

// FuzzShouldIgnore fuzzes the ShouldIgnore function with random paths and patterns.
func FuzzShouldIgnore(f *testing.F) {
	f.Add("main.go", "*.log")
	f.Add("vendor/package/file.go", "vendor/")
	f.Add("", "")
	f.Add("very/long/path/to/file.txt", "**/temp/**")

	f.Fuzz(func(_ *testing.T, path string, pattern string) {
		_ = ShouldIgnore(path, []string{pattern})
	})
}
