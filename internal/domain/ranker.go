package domain

import (
	"fmt"
	"sort"

	"github.com/jakechild/sleuth/internal/domain/metrics"
	m "github.com/jakechild/sleuth/internal/model"
)

// DefaultPrimaryMetric orders report rows unless overridden.
const DefaultPrimaryMetric = metrics.OchiaiName

// Ranker turns a spectrum into ordered report rows. Formulas are
// pluggable: every registered metric is scored for every row, while
// ordering uses only the primary.
type Ranker struct {
	formulas []metrics.Formula
	primary  string
}

// NewRanker constructs a Ranker ordering by the named primary metric.
func NewRanker(primary string) (*Ranker, error) {
	if primary == "" {
		primary = DefaultPrimaryMetric
	}

	if _, ok := metrics.ByName(primary); !ok {
		return nil, fmt.Errorf("unknown metric %q", primary)
	}

	return &Ranker{
		formulas: metrics.All(),
		primary:  primary,
	}, nil
}

// Rank scores every sid that appears in any coverage set and returns
// rows in report order. Ordering is a total order over (primary score,
// covered-failed count, sid), so identical spectra produce identical
// reports regardless of map iteration order.
func (r *Ranker) Rank(sp m.Spectrum, statements m.StatementMap) []m.Row {
	rows := make([]m.Row, 0, len(statements))

	for _, id := range coveredIDs(sp) {
		stmt, ok := statements.Lookup(id)
		if !ok {
			// A sid with no surviving probe: keep the row so coverage
			// is never silently dropped, but flag the display.
			stmt = m.Statement{ID: id, Snippet: "(unknown statement)"}
		}

		tally := sp.TallyFor(id)

		scores := make(map[string]m.Score, len(r.formulas))
		for _, f := range r.formulas {
			value, defined := f.Score(tally)
			scores[f.Name()] = m.Score{Value: value, Defined: defined}
		}

		rows = append(rows, m.Row{
			Statement: stmt,
			Tally:     tally,
			Scores:    scores,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return r.less(rows[i], rows[j])
	})

	return rows
}

// less orders descending by primary score with undefined last, then by
// covered-failed count descending, then by sid ascending.
func (r *Ranker) less(a, b m.Row) bool {
	sa, sb := a.Scores[r.primary], b.Scores[r.primary]

	switch {
	case sa.Defined != sb.Defined:
		return sa.Defined
	case sa.Defined && sa.Value != sb.Value:
		return sa.Value > sb.Value
	case a.Tally.CoveredFailed != b.Tally.CoveredFailed:
		return a.Tally.CoveredFailed > b.Tally.CoveredFailed
	}

	return a.Statement.ID.Key() < b.Statement.ID.Key()
}

// coveredIDs returns the union of all coverage sets in deterministic
// (sorted) order.
func coveredIDs(sp m.Spectrum) []m.StatementID {
	seen := make(map[m.StatementID]struct{})

	for _, set := range sp.Coverage {
		for id := range set {
			seen[id] = struct{}{}
		}
	}

	ids := make([]m.StatementID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
