package domain

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/jakechild/sleuth/internal/domain/probe"
)

// probeSite marks one place a probe belongs: either immediately before
// a statement, or at the head of a catch/finally block.
type probeSite struct {
	// stmtStart is the byte offset of the annotated statement, or of
	// the owning clause for block-head sites.
	stmtStart int

	// blockHead is true for catch/finally head probes; insertAt then
	// points just past the block's opening brace.
	blockHead bool
	insertAt  int
}

// probedStatementKinds lists the node kinds that receive a probe when
// they appear directly in a block, a switch section, or at the top
// level. Branching constructs are probed once, before their header;
// their bodies are blocks and recurse normally.
var probedStatementKinds = map[string]struct{}{
	"expression_statement":        {},
	"local_declaration_statement": {},
	"return_statement":            {},
	"throw_statement":             {},
	"break_statement":             {},
	"continue_statement":          {},
	"yield_statement":             {},
	"if_statement":                {},
	"while_statement":             {},
	"for_statement":               {},
	"foreach_statement":           {},
	"do_statement":                {},
	"switch_statement":            {},
}

// statementContexts are the parent kinds under which a statement sits
// on its own control-flow edge with brace-delimited siblings, so a
// probe inserted before it executes exactly when it does. Unbraced
// single-statement branch bodies are intentionally not probed; the
// header probe before the construct still records them.
var statementContexts = map[string]struct{}{
	"block":            {},
	"switch_section":   {},
	"global_statement": {},
}

// collectSites walks a parsed file and returns every probe site in
// source order.
func collectSites(root *tree_sitter.Node, src []byte) []probeSite {
	var sites []probeSite

	walkNode(root, src, &sites)

	return sites
}

func walkNode(node *tree_sitter.Node, src []byte, sites *[]probeSite) {
	switch kind := node.Kind(); kind {
	case "catch_clause", "finally_clause":
		if body := childOfKind(node, "block"); body != nil {
			*sites = append(*sites, probeSite{
				stmtStart: int(node.StartByte()),
				blockHead: true,
				insertAt:  int(body.StartByte()) + 1,
			})
		}

	default:
		if isProbedStatement(node, kind, src) {
			*sites = append(*sites, probeSite{stmtStart: int(node.StartByte())})
		}
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		walkNode(node.NamedChild(i), src, sites)
	}
}

func isProbedStatement(node *tree_sitter.Node, kind string, src []byte) bool {
	if _, ok := probedStatementKinds[kind]; !ok {
		return false
	}

	parent := node.Parent()
	if parent == nil {
		return false
	}

	if _, ok := statementContexts[parent.Kind()]; !ok {
		return false
	}

	// A declaration without an initialiser binds nothing at runtime.
	if kind == "local_declaration_statement" && !hasInitializer(node) {
		return false
	}

	// Never annotate a probe with another probe.
	if probe.Recognize(nodeText(node, src)) {
		return false
	}

	return true
}

// hasInitializer reports whether any declarator in a local declaration
// carries an "=" initialiser.
func hasInitializer(node *tree_sitter.Node) bool {
	decl := childOfKind(node, "variable_declaration")
	if decl == nil {
		return false
	}

	for i := uint(0); i < decl.NamedChildCount(); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Kind() != "variable_declarator" {
			continue
		}

		for j := uint(0); j < declarator.ChildCount(); j++ {
			if declarator.Child(j).Kind() == "=" {
				return true
			}
		}

		// A declarator with an initialiser carries the value expression
		// as a second named child after the name.
		if declarator.NamedChildCount() > 1 {
			return true
		}
	}

	return false
}

func childOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if c := node.NamedChild(i); c.Kind() == kind {
			return c
		}
	}

	return nil
}

func nodeText(node *tree_sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

// lineIndent returns the start offset of the line containing pos and
// the line's leading whitespace.
func lineIndent(src []byte, pos int) (int, string) {
	lineStart := pos
	for lineStart > 0 && src[lineStart-1] != '\n' {
		lineStart--
	}

	end := lineStart
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}

	return lineStart, string(src[lineStart:end])
}

// restOfLineBlank reports whether only whitespace follows pos on its
// line.
func restOfLineBlank(src []byte, pos int) bool {
	for i := pos; i < len(src) && src[i] != '\n'; i++ {
		if c := src[i]; c != ' ' && c != '\t' && c != '\r' {
			return false
		}
	}

	return true
}
