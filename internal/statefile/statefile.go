// Package statefile loads and saves the JSON documents kept in the state directory.
package statefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/huangsam/historian/schema"
)

// readOptional returns the file content, or nil when the file does not exist.
func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

func isList(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// decodeKeyed decodes either a mapping of path -> T or a list of objects that
// carry the path in a "filename" field.
func decodeKeyed[T any](data []byte) (map[string]T, error) {
	if !isList(data) {
		out := map[string]T{}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]T, len(raw))
	for i, item := range raw {
		var key struct {
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(item, &key); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if key.Filename == "" {
			return nil, fmt.Errorf("item %d: missing filename", i)
		}
		var value T
		if err := json.Unmarshal(item, &value); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[key.Filename] = value
	}
	return out, nil
}

// LoadRiskMap reads a risk map. A missing file yields an empty map.
func LoadRiskMap(path string) (schema.RiskMap, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return schema.RiskMap{}, err
	}
	rm, err := decodeKeyed[schema.RiskEntry](data)
	if err != nil {
		return nil, fmt.Errorf("decode risk map %s: %w", path, err)
	}
	return rm, nil
}

// LoadTrajectory reads a trajectory. A missing file yields an empty trajectory.
func LoadTrajectory(path string) (schema.Trajectory, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return schema.Trajectory{}, err
	}
	t, err := decodeKeyed[schema.TrajectoryEntry](data)
	if err != nil {
		return nil, fmt.Errorf("decode trajectory %s: %w", path, err)
	}
	return t, nil
}

// LoadFeedback reads feedback events given either as a list of
// {filename, change, reinforcement} or as a mapping filename -> {change, reinforcement}.
// Mapping input is returned sorted by filename.
func LoadFeedback(path string) ([]schema.Feedback, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return []schema.Feedback{}, err
	}
	feedback, err := DecodeFeedback(data)
	if err != nil {
		return nil, fmt.Errorf("decode feedback %s: %w", path, err)
	}
	return feedback, nil
}

// DecodeFeedback decodes a feedback document and validates its change labels.
func DecodeFeedback(data []byte) ([]schema.Feedback, error) {
	var feedback []schema.Feedback
	if isList(data) {
		if err := json.Unmarshal(data, &feedback); err != nil {
			return nil, err
		}
	} else {
		byFile := map[string]schema.Feedback{}
		if err := json.Unmarshal(data, &byFile); err != nil {
			return nil, err
		}
		for _, name := range slices.Sorted(maps.Keys(byFile)) {
			fb := byFile[name]
			fb.Filename = name
			feedback = append(feedback, fb)
		}
	}
	for i, fb := range feedback {
		if fb.Filename == "" {
			return nil, fmt.Errorf("event %d: missing filename", i)
		}
		if _, ok := schema.ValidChangeLabels[fb.Change]; !ok {
			return nil, fmt.Errorf("event %d: invalid change %q", i, fb.Change)
		}
	}
	if feedback == nil {
		feedback = []schema.Feedback{}
	}
	return feedback, nil
}

// SaveJSON writes v as indented JSON, creating parent directories.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return SaveBytes(path, append(data, '\n'))
}

// SaveBytes writes data, creating parent directories.
func SaveBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SaveRiskMap persists a risk map.
func SaveRiskMap(path string, rm schema.RiskMap) error {
	return SaveJSON(path, rm)
}

// SaveTrajectory persists a trajectory.
func SaveTrajectory(path string, t schema.Trajectory) error {
	return SaveJSON(path, t)
}

// LoadRunState reads the run counter. A missing file yields a zero counter.
func LoadRunState(path string) (schema.RunState, error) {
	data, err := readOptional(path)
	if err != nil || data == nil {
		return schema.RunState{}, err
	}
	var state schema.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return schema.RunState{}, fmt.Errorf("decode run state %s: %w", path, err)
	}
	return state, nil
}

// SaveRunState persists the run counter.
func SaveRunState(path string, state schema.RunState) error {
	return SaveJSON(path, state)
}
