// Package probe generates and recognises the statements the rewriter
// injects into C# source. A probe appends its owning statement id to a
// sink file every time it executes; the sink path is a verbatim string
// literal baked into the probe so the instrumented program carries no
// environment dependency.
package probe

import (
	"strings"

	m "github.com/jakechild/sleuth/internal/model"
)

// marker is the sentinel comment that makes recognition O(1) and
// unambiguous. Matching the append API by name would break as soon as
// the call is aliased or wrapped; the sentinel survives both.
const marker = "/*@sleuth@*/"

const callPrefix = `global::System.IO.File.AppendAllText(@"`

// Encode produces the probe statement for the given sid and sink path.
// The emitted form is a single C# statement:
//
//	/*@sleuth@*/global::System.IO.File.AppendAllText(@"<sink>", "<sid>\n");
//
// AppendAllText creates the sink if needed and appends otherwise, which
// is exactly the pure-append contract the coverage pipeline relies on.
func Encode(sid m.StatementID, sink m.Path) string {
	var b strings.Builder

	b.WriteString(marker)
	b.WriteString(callPrefix)
	b.WriteString(escapeVerbatim(string(sink)))
	b.WriteString(`", "`)
	b.WriteString(string(sid))
	b.WriteString(`\n");`)

	return b.String()
}

// Recognize reports whether a statement's text is a previously emitted
// probe, regardless of which sink or sid it carries.
func Recognize(stmt string) bool {
	return strings.Contains(stmt, marker)
}

// ExtractSink returns the sink path literal of a recognised probe.
func ExtractSink(stmt string) (m.Path, bool) {
	sink, _, ok := parse(stmt)
	return sink, ok
}

// ExtractSid returns the statement id a recognised probe records.
func ExtractSid(stmt string) (m.StatementID, bool) {
	_, sid, ok := parse(stmt)
	return sid, ok
}

// Retarget rewrites a recognised probe to record into a new sink while
// keeping its sid. Retarget(Encode(sid, p), p2) is byte-equal to
// Encode(sid, p2).
func Retarget(stmt string, sink m.Path) (string, bool) {
	_, sid, ok := parse(stmt)
	if !ok {
		return "", false
	}

	return Encode(sid, sink), true
}

// parse splits a recognised probe into its sink path and sid. The sink
// is a verbatim literal (quotes doubled), the sid a regular literal
// ending in the escaped line terminator.
func parse(stmt string) (m.Path, m.StatementID, bool) {
	if !Recognize(stmt) {
		return "", "", false
	}

	start := strings.Index(stmt, callPrefix)
	if start < 0 {
		return "", "", false
	}

	rest := stmt[start+len(callPrefix):]

	end := closingQuote(rest)
	if end < 0 {
		return "", "", false
	}

	sink := unescapeVerbatim(rest[:end])

	rest = rest[end:]
	if !strings.HasPrefix(rest, `", "`) {
		return "", "", false
	}

	rest = rest[len(`", "`):]

	sidEnd := strings.Index(rest, `\n");`)
	if sidEnd <= 0 {
		return "", "", false
	}

	return m.Path(sink), m.StatementID(rest[:sidEnd]), true
}

// closingQuote finds the terminating quote of a verbatim literal body,
// skipping doubled quotes.
func closingQuote(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}

		if i+1 < len(s) && s[i+1] == '"' {
			i++
			continue
		}

		return i
	}

	return -1
}

func escapeVerbatim(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

func unescapeVerbatim(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}
