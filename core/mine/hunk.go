package mine

import (
	"fmt"
	"slices"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ChangedLines parses a unified diff and returns, per post-change path, the
// sorted new-file line numbers touched by each hunk. Deleted files are keyed
// by their original path.
func ChangedLines(patch []byte) (map[string][]int, error) {
	if len(patch) == 0 {
		return map[string][]int{}, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}

	out := make(map[string][]int, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := diffPath(fd)
		if path == "" {
			continue
		}
		seen := make(map[int]struct{})
		for _, hunk := range fd.Hunks {
			for _, line := range HunkLines(int(hunk.NewStartLine), string(hunk.Body)) {
				seen[line] = struct{}{}
			}
		}
		lines := make([]int, 0, len(seen))
		for l := range seen {
			lines = append(lines, l)
		}
		slices.Sort(lines)
		out[path] = lines
	}
	return out, nil
}

// HunkLines walks one hunk body and returns the new-file lines it touches.
// An added line is recorded at its own position. A removed line is recorded
// at the position of the line that follows it in the new file.
func HunkLines(newStart int, body string) []int {
	var lines []int
	counter := newStart - 1
	for line := range strings.SplitSeq(strings.TrimSuffix(body, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			counter++
			lines = append(lines, counter)
		case strings.HasPrefix(line, "-"):
			lines = append(lines, counter+1)
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		default:
			counter++
		}
	}
	return lines
}

func diffPath(fd *godiff.FileDiff) string {
	if name := strings.TrimPrefix(fd.NewName, "b/"); fd.NewName != "/dev/null" && name != "" {
		return name
	}
	if name := strings.TrimPrefix(fd.OrigName, "a/"); fd.OrigName != "/dev/null" {
		return name
	}
	return ""
}
