package adapter

import (
	"fmt"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	ts_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	m "github.com/jakechild/sleuth/internal/model"
)

// CSharpFileAdapter encapsulates C# parsing so the domain layer can
// focus on instrumentation and discovery rules while delegating grammar
// details to an infrastructure component.
type CSharpFileAdapter interface {
	// Parse builds a syntax tree for the provided filename/source pair.
	// The caller owns the returned tree and must Close it.
	Parse(filename m.Path, src []byte) (*tree_sitter.Tree, error)
}

// LocalCSharpFileAdapter is a concrete CSharpFileAdapter backed by the
// tree-sitter C# grammar.
type LocalCSharpFileAdapter struct {
	language *tree_sitter.Language
}

// NewLocalCSharpFileAdapter constructs a LocalCSharpFileAdapter.
func NewLocalCSharpFileAdapter() *LocalCSharpFileAdapter {
	return &LocalCSharpFileAdapter{
		language: tree_sitter.NewLanguage(unsafe.Pointer(ts_csharp.Language())),
	}
}

// Parse builds a syntax tree for src. A tree whose root contains error
// nodes is rejected so callers never rewrite a file the grammar could
// not fully understand.
func (a *LocalCSharpFileAdapter) Parse(filename m.Path, src []byte) (*tree_sitter.Tree, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(a.language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no tree produced", filename)
	}

	if tree.RootNode().HasError() {
		tree.Close()
		return nil, fmt.Errorf("parse %s: syntax errors", filename)
	}

	return tree, nil
}
