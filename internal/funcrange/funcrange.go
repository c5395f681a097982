//go:build cgo

package funcrange

import (
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/historian/schema"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// IsAvailable reports whether tree-sitter grammars are compiled in.
func IsAvailable() bool { return true }

// Extractor parses source files and returns their function ranges.
// An Extractor is not safe for concurrent use.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: sitter.NewParser()}
}

// Extract returns the function ranges of src, which is the content of path.
// It returns ErrUnsupported for unknown extensions and ErrSyntax when the
// tree contains error nodes.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) ([]schema.FunctionRange, error) {
	lang, ok := LanguageFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	e.parser.SetLanguage(getLanguage(lang))
	tree, err := e.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, path)
	}

	types := functionNodeTypes(lang)
	var ranges []schema.FunctionRange
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if slices.Contains(types, node.Type()) {
			if name := functionName(node, src); name != "" {
				ranges = append(ranges, schema.FunctionRange{
					File:  path,
					Name:  name,
					Start: int(node.StartPoint().Row) + 1,
					End:   int(node.EndPoint().Row) + 1,
				})
			}
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)
	return ranges, nil
}

func getLanguage(lang Language) *sitter.Language {
	switch lang {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	case LangRust:
		return rust.GetLanguage()
	default:
		return java.GetLanguage()
	}
}

func functionName(node *sitter.Node, src []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child != nil && child.Type() == "identifier" {
				nameNode = child
				break
			}
		}
	}
	if nameNode == nil {
		return ""
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}
