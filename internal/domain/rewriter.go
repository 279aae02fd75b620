// Package domain contains the core fault-localization workflow and logic.
package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jakechild/sleuth/internal/adapter"
	"github.com/jakechild/sleuth/internal/domain/probe"
	m "github.com/jakechild/sleuth/internal/model"
)

// maxSnippetLen bounds the statement snippet carried into reports.
const maxSnippetLen = 80

// blockIndent is appended to a clause's indentation for the probe at
// the head of its block.
const blockIndent = "    "

// Rewriter injects, retargets, strips and harvests probes in C# source
// files. All rewriting is in place; writes go through the atomic
// write-and-rename path so a failure never leaves a half-written file.
type Rewriter struct {
	files adapter.CSharpFileAdapter
	fs    adapter.SourceFSAdapter

	// newID draws a fresh statement id. Overridable in tests for
	// deterministic output.
	newID func() m.StatementID
}

// NewRewriter constructs a Rewriter backed by the provided adapters.
func NewRewriter(files adapter.CSharpFileAdapter, fs adapter.SourceFSAdapter) *Rewriter {
	return &Rewriter{
		files: files,
		fs:    fs,
		newID: func() m.StatementID {
			return m.StatementID(uuid.NewString())
		},
	}
}

// InstrumentFile instruments one source file against the given sink and
// returns the statements its probes annotate. A file that already
// carries probes is not re-instrumented; its probes are retargeted to
// the current sink and harvested instead, so a second pass is a no-op
// apart from sink freshness.
func (r *Rewriter) InstrumentFile(path, display, sink m.Path) ([]m.Statement, error) {
	content, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if probe.Recognize(string(content)) {
		if _, err := r.RetargetFile(path, sink); err != nil {
			return nil, err
		}

		return r.HarvestFile(path, display)
	}

	tree, err := r.files.Parse(path, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	sites := collectSites(tree.RootNode(), content)
	if len(sites) == 0 {
		return nil, nil
	}

	instrumented := r.applySites(content, sites, sink)

	if err := r.fs.WriteFileAtomic(path, instrumented, 0o644); err != nil {
		return nil, err
	}

	return harvest(instrumented, display), nil
}

// applySites splices a probe into content for every site, working back
// to front so earlier offsets stay valid.
func (r *Rewriter) applySites(content []byte, sites []probeSite, sink m.Path) []byte {
	sort.Slice(sites, func(i, j int) bool {
		return insertionPos(sites[i]) > insertionPos(sites[j])
	})

	out := content

	for _, site := range sites {
		stmt := probe.Encode(r.newID(), sink)

		var pos int

		var text string

		if site.blockHead {
			_, clauseIndent := lineIndent(out, site.stmtStart)
			inner := clauseIndent + blockIndent
			pos = site.insertAt
			text = "\n" + inner + stmt

			if !restOfLineBlank(out, pos) {
				text += "\n" + clauseIndent
			}
		} else {
			lineStart, indent := lineIndent(out, site.stmtStart)
			if lineStart+len(indent) == site.stmtStart {
				// Statement opens its line: probe goes on a line of its
				// own above it, same indentation.
				pos = lineStart
				text = indent + stmt + "\n"
			} else {
				// Statement shares a line: break before it so the probe
				// still gets a dedicated line.
				pos = site.stmtStart
				text = "\n" + indent + stmt + "\n" + indent
			}
		}

		out = append(out[:pos:pos], append([]byte(text), out[pos:]...)...)
	}

	return out
}

func insertionPos(site probeSite) int {
	if site.blockHead {
		return site.insertAt
	}

	return site.stmtStart
}

// RetargetFile rewrites the sink literal of every probe in the file to
// the given path. The file is written back only when a probe changed.
func (r *Rewriter) RetargetFile(path, sink m.Path) (bool, error) {
	content, err := r.fs.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	lines := splitLines(content)
	changed := false

	for i, line := range lines {
		if !probe.Recognize(line) {
			continue
		}

		indent, stmt := splitIndent(line)

		updated, ok := probe.Retarget(stmt, sink)
		if !ok {
			continue
		}

		if updated != stmt {
			lines[i] = indent + updated
			changed = true
		}
	}

	if !changed {
		return false, nil
	}

	if err := r.fs.WriteFileAtomic(path, joinLines(lines), 0o644); err != nil {
		return false, err
	}

	return true, nil
}

// StripFile deletes every probe from the file. Returns whether the file
// changed.
func (r *Rewriter) StripFile(path m.Path) (bool, error) {
	content, err := r.fs.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if !probe.Recognize(string(content)) {
		return false, nil
	}

	lines := splitLines(content)
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if probe.Recognize(line) {
			continue
		}

		kept = append(kept, line)
	}

	if err := r.fs.WriteFileAtomic(path, joinLines(kept), 0o644); err != nil {
		return false, err
	}

	return true, nil
}

// HarvestFile rebuilds the identifier map entries for a file from its
// surviving probe text. This is the persistence story for the map: the
// probes are the record.
func (r *Rewriter) HarvestFile(path, display m.Path) ([]m.Statement, error) {
	content, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return harvest(content, display), nil
}

// harvest scans content for probe lines and pairs each with the next
// non-probe line, which is the statement the probe annotates.
func harvest(content []byte, display m.Path) []m.Statement {
	lines := splitLines(content)

	var statements []m.Statement

	for i, line := range lines {
		if !probe.Recognize(line) {
			continue
		}

		_, stmt := splitIndent(line)

		sid, ok := probe.ExtractSid(stmt)
		if !ok {
			continue
		}

		annotatedLine, snippet := annotated(lines, i)

		statements = append(statements, m.Statement{
			ID:      sid,
			File:    display,
			Line:    annotatedLine,
			Snippet: snippet,
		})
	}

	return statements
}

// annotated locates the statement a probe on line i annotates: the next
// line that is not itself a probe.
func annotated(lines []string, i int) (int, string) {
	for j := i + 1; j < len(lines); j++ {
		if probe.Recognize(lines[j]) {
			continue
		}

		return j + 1, clipSnippet(lines[j])
	}

	return i + 1, ""
}

func clipSnippet(line string) string {
	snippet := strings.TrimSpace(line)
	if len(snippet) > maxSnippetLen {
		snippet = snippet[:maxSnippetLen]
	}

	return snippet
}

func splitLines(content []byte) []string {
	return strings.Split(string(content), "\n")
}

func joinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

func splitIndent(line string) (string, string) {
	stmt := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(stmt)], stmt
}
