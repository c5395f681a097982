//go:build cgo

package funcrange

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPython(t *testing.T) {
	src := []byte(`import os


def alpha():
    return 1


class Box:
    def open(self):
        pass

    async def close(self):
        pass
`)
	ranges, err := NewExtractor().Extract(context.Background(), "pkg/box.py", src)
	require.NoError(t, err)
	assert.Equal(t, []schema.FunctionRange{
		{File: "pkg/box.py", Name: "alpha", Start: 4, End: 5},
		{File: "pkg/box.py", Name: "open", Start: 9, End: 10},
		{File: "pkg/box.py", Name: "close", Start: 12, End: 13},
	}, ranges)
}

func TestExtractGo(t *testing.T) {
	src := []byte(`package demo

type T struct{}

func Free() int {
	return 1
}

func (t *T) Method() {
}
`)
	ranges, err := NewExtractor().Extract(context.Background(), "demo.go", src)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, "Free", ranges[0].Name)
	assert.Equal(t, 5, ranges[0].Start)
	assert.Equal(t, 7, ranges[0].End)
	assert.Equal(t, "Method", ranges[1].Name)
	assert.True(t, ranges[1].Contains(9))
}

func TestExtractJavaScript(t *testing.T) {
	src := []byte("function one() {\n  return 1;\n}\nclass A {\n  two() {}\n}\n")
	ranges, err := NewExtractor().Extract(context.Background(), "a.js", src)
	require.NoError(t, err)
	names := make([]string, 0, len(ranges))
	for _, r := range ranges {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"one", "two"}, names)
}

func TestExtractSyntaxError(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "bad.py", []byte("def broken(:\n"))
	assert.True(t, errors.Is(err, ErrSyntax))
}

func TestExtractUnsupported(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "notes.txt", []byte("hello"))
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.True(t, IsAvailable())
}
