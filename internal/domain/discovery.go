package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/jakechild/sleuth/internal/adapter"
	m "github.com/jakechild/sleuth/internal/model"
)

// DefaultTestAttributes are the attribute short names that mark a
// method as a test. The set is data, not code: adding a framework means
// adding a row.
var DefaultTestAttributes = []string{
	"Fact",
	"Theory",
	"TestMethod",
	"Test",
	"DataTestMethod",
}

// skippedSegments are path segments whose subtrees never hold tests or
// instrumentable source (build output and our own coverage data).
var skippedSegments = map[string]struct{}{
	"bin":       {},
	"obj":       {},
	"coverage":  {},
	".coverage": {},
}

// generatedPatterns match generated files by suffix convention.
var generatedPatterns = []string{
	"**/*.g.*",
	"**/*.designer.*",
}

// skipDirSegment reports whether a directory name excludes its subtree.
func skipDirSegment(name string) bool {
	_, ok := skippedSegments[strings.ToLower(name)]
	return ok
}

// isGeneratedFile reports whether a path matches a generated-file
// suffix convention, case-insensitively.
func isGeneratedFile(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))

	for _, pattern := range generatedPatterns {
		if ok, _ := doublestar.Match(pattern, lower); ok {
			return true
		}
	}

	return false
}

// Discovery enumerates test methods in a test project tree.
type Discovery struct {
	files      adapter.CSharpFileAdapter
	fs         adapter.SourceFSAdapter
	attributes map[string]struct{}
	workers    int
}

// NewDiscovery constructs a Discovery recognising the given attribute
// short names (DefaultTestAttributes when empty).
func NewDiscovery(files adapter.CSharpFileAdapter, fs adapter.SourceFSAdapter, attributes []string, workers int) *Discovery {
	if len(attributes) == 0 {
		attributes = DefaultTestAttributes
	}

	set := make(map[string]struct{}, len(attributes))
	for _, a := range attributes {
		set[strings.ToLower(a)] = struct{}{}
	}

	if workers <= 0 {
		workers = 1
	}

	return &Discovery{
		files:      files,
		fs:         fs,
		attributes: set,
		workers:    workers,
	}
}

// DiscoverTests walks root, parses every candidate source file and
// returns the marked test methods, deduplicated by fully-qualified name
// and sorted by ordinal comparison. Files that fail to parse are warned
// about and skipped.
func (d *Discovery) DiscoverTests(ctx context.Context, root m.Path) ([]m.TestCase, error) {
	candidates, err := d.candidateFiles(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	var (
		mu    sync.Mutex
		tests []m.TestCase
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(d.workers)

	for _, file := range candidates {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			found, err := d.testsInFile(file)
			if err != nil {
				slog.Warn("skipping unparseable test file", "file", file, "error", err)
				return nil
			}

			mu.Lock()
			tests = append(tests, found...)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return dedupeAndSort(tests), nil
}

func (d *Discovery) candidateFiles(root m.Path) ([]m.Path, error) {
	var files []m.Path

	err := d.fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != string(root) && skipDirSegment(info.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".cs") || isGeneratedFile(path) {
			return nil
		}

		files = append(files, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (d *Discovery) testsInFile(file m.Path) ([]m.TestCase, error) {
	content, err := d.fs.ReadFile(file)
	if err != nil {
		return nil, err
	}

	tree, err := d.files.Parse(file, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var tests []m.TestCase

	d.collectTests(tree.RootNode(), content, file, &tests)

	return tests, nil
}

func (d *Discovery) collectTests(node *tree_sitter.Node, src []byte, file m.Path, tests *[]m.TestCase) {
	if node.Kind() == "method_declaration" {
		if attr, ok := d.testAttribute(node, src); ok {
			if test, ok := buildTestCase(node, src, file, attr); ok {
				*tests = append(*tests, test)
			}
		}
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		d.collectTests(node.NamedChild(i), src, file, tests)
	}
}

// testAttribute returns the first recognised marker attribute on a
// method, matching the short name case-insensitively and tolerating an
// explicit "Attribute" suffix or namespace qualification.
func (d *Discovery) testAttribute(method *tree_sitter.Node, src []byte) (string, bool) {
	for i := uint(0); i < method.NamedChildCount(); i++ {
		list := method.NamedChild(i)
		if list.Kind() != "attribute_list" {
			continue
		}

		for j := uint(0); j < list.NamedChildCount(); j++ {
			attr := list.NamedChild(j)
			if attr.Kind() != "attribute" {
				continue
			}

			name := attributeShortName(attr, src)
			if _, ok := d.attributes[strings.ToLower(name)]; ok {
				return name, true
			}
		}
	}

	return "", false
}

func attributeShortName(attr *tree_sitter.Node, src []byte) string {
	nameNode := attr.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}

	name := nodeText(nameNode, src)

	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	if idx := strings.Index(name, "<"); idx >= 0 {
		name = name[:idx]
	}

	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "attribute") && len(name) > len("attribute") {
		name = name[:len(name)-len("attribute")]
	}

	return name
}

func buildTestCase(method *tree_sitter.Node, src []byte, file m.Path, attr string) (m.TestCase, bool) {
	nameNode := method.ChildByFieldName("name")
	if nameNode == nil {
		return m.TestCase{}, false
	}

	typeName := enclosingTypeName(method, src)
	if typeName == "" {
		return m.TestCase{}, false
	}

	return m.TestCase{
		File:      file,
		Namespace: enclosingNamespace(method, src),
		Type:      typeName,
		Method:    nodeText(nameNode, src),
		Attribute: attr,
	}, true
}

var typeDeclarationKinds = map[string]struct{}{
	"class_declaration":     {},
	"struct_declaration":    {},
	"record_declaration":    {},
	"interface_declaration": {},
}

// enclosingTypeName joins the names of the type declarations wrapping a
// method, outermost first, which is the display form coverage files are
// named after.
func enclosingTypeName(node *tree_sitter.Node, src []byte) string {
	var parts []string

	for p := node.Parent(); p != nil; p = p.Parent() {
		if _, ok := typeDeclarationKinds[p.Kind()]; !ok {
			continue
		}

		if name := p.ChildByFieldName("name"); name != nil {
			parts = append([]string{nodeText(name, src)}, parts...)
		}
	}

	return strings.Join(parts, ".")
}

var namespaceKinds = map[string]struct{}{
	"namespace_declaration":             {},
	"file_scoped_namespace_declaration": {},
}

func enclosingNamespace(node *tree_sitter.Node, src []byte) string {
	var parts []string

	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "compilation_unit" {
			// A file-scoped namespace is a sibling of the types it scopes,
			// not their ancestor, so look it up among the unit's children.
			for i := uint(0); i < p.NamedChildCount(); i++ {
				child := p.NamedChild(i)
				if child.Kind() != "file_scoped_namespace_declaration" {
					continue
				}

				if name := child.ChildByFieldName("name"); name != nil {
					parts = append([]string{nodeText(name, src)}, parts...)
				}

				break
			}
		}

		if _, ok := namespaceKinds[p.Kind()]; !ok {
			continue
		}

		if name := p.ChildByFieldName("name"); name != nil {
			parts = append([]string{nodeText(name, src)}, parts...)
		}
	}

	return strings.Join(parts, ".")
}

func dedupeAndSort(tests []m.TestCase) []m.TestCase {
	seen := make(map[string]struct{}, len(tests))
	unique := make([]m.TestCase, 0, len(tests))

	for _, t := range tests {
		if _, dup := seen[t.FullName()]; dup {
			continue
		}

		seen[t.FullName()] = struct{}{}

		unique = append(unique, t)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].FullName() < unique[j].FullName()
	})

	return unique
}
