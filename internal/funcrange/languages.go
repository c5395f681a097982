// Package funcrange extracts function line spans from source files with tree-sitter.
package funcrange

import (
	"errors"
	"path/filepath"
	"strings"
)

// Language represents a supported programming language.
type Language string

// All languages supported.
const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
)

// ErrUnsupported is returned for files whose extension has no grammar.
var ErrUnsupported = errors.New("unsupported language")

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("source has syntax errors")

var extensions = map[string]Language{
	".go":   LangGo,
	".js":   LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".jsx":  LangJavaScript,
	".ts":   LangTypeScript,
	".mts":  LangTypeScript,
	".cts":  LangTypeScript,
	".tsx":  LangTSX,
	".py":   LangPython,
	".pyw":  LangPython,
	".rs":   LangRust,
	".java": LangJava,
}

// LanguageFromPath returns the language for a file path based on its extension.
func LanguageFromPath(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// IsSupported reports whether path has a grammar.
func IsSupported(path string) bool {
	_, ok := LanguageFromPath(path)
	return ok
}

// functionNodeTypes returns the node types that represent named functions for a language.
func functionNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangJavaScript, LangTypeScript, LangTSX:
		return []string{"function_declaration", "method_definition", "generator_function_declaration"}
	case LangPython:
		return []string{"function_definition"}
	case LangRust:
		return []string{"function_item"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	default:
		return nil
	}
}
