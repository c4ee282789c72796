package annotation

import (
	"fmt"
	"sort"
	"strings"
)

// OrphanScope controls how long unresolved records wait for a domain
type OrphanScope string

const (
	// OrphanScopePage drops records still unresolved at the end of their page
	OrphanScopePage OrphanScope = "page"
	// OrphanScopeDocument keeps them until a later page declares their context
	OrphanScopeDocument OrphanScope = "document"
)

// ParseOrphanScope validates an orphan scope name
func ParseOrphanScope(s string) (OrphanScope, error) {
	switch OrphanScope(strings.ToLower(strings.TrimSpace(s))) {
	case OrphanScopePage, "":
		return OrphanScopePage, nil
	case OrphanScopeDocument:
		return OrphanScopeDocument, nil
	default:
		return "", fmt.Errorf("unknown orphan scope: %s (must be one of: page, document)", s)
	}
}

type pendingKey struct {
	context  string
	variable string
}

// Aggregator folds per-page records into one canonical record per identity.
// It is owned by a single processing pass and is not safe for concurrent use.
type Aggregator struct {
	records map[string]*Record

	pending    map[pendingKey][]Record
	pendingSeq []pendingKey
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		records: make(map[string]*Record),
		pending: make(map[pendingKey][]Record),
	}
}

// Merge inserts a resolved record or folds it into the record sharing its
// identity. Records without identity are rejected.
func (a *Aggregator) Merge(rec Record) bool {
	if !rec.Resolved() {
		return false
	}

	existing, ok := a.records[rec.ID]
	if !ok {
		fresh := rec.clone()
		a.records[rec.ID] = &fresh
		return true
	}

	for _, incoming := range rec.Pages {
		existing.mergePage(incoming)
	}
	return true
}

// mergePage adds one page entry. Same page as the last entry: clauses are
// appended unless already present. Later page: a new entry is appended.
// Earlier page (replayed orphans only): the entry is placed at its page
// position so the history stays ordered.
func (r *Record) mergePage(in PageDescription) {
	if len(r.Pages) == 0 {
		r.Pages = append(r.Pages, copyPage(in))
		return
	}

	last := &r.Pages[len(r.Pages)-1]
	switch {
	case last.Page == in.Page:
		for _, clause := range in.Description {
			last.Add(clause)
		}
	case in.Page > last.Page:
		r.Pages = append(r.Pages, copyPage(in))
	default:
		idx := sort.Search(len(r.Pages), func(i int) bool { return r.Pages[i].Page >= in.Page })
		if idx < len(r.Pages) && r.Pages[idx].Page == in.Page {
			for _, clause := range in.Description {
				r.Pages[idx].Add(clause)
			}
			return
		}
		r.Pages = append(r.Pages, PageDescription{})
		copy(r.Pages[idx+1:], r.Pages[idx:])
		r.Pages[idx] = copyPage(in)
	}
}

func copyPage(p PageDescription) PageDescription {
	return PageDescription{
		Page:        p.Page,
		Description: append([]string{}, p.Description...),
	}
}

// Hold buffers an unresolved record under its context token and variable
func (a *Aggregator) Hold(rec Record) {
	key := pendingKey{context: rec.DomainContext, variable: rec.Variable}
	if _, ok := a.pending[key]; !ok {
		a.pendingSeq = append(a.pendingSeq, key)
	}
	a.pending[key] = append(a.pending[key], rec.clone())
}

// Release removes and returns every held record of a context token, in the
// order they were held.
func (a *Aggregator) Release(context string) []Record {
	var released []Record
	kept := a.pendingSeq[:0]
	for _, key := range a.pendingSeq {
		if key.context != context {
			kept = append(kept, key)
			continue
		}
		released = append(released, a.pending[key]...)
		delete(a.pending, key)
	}
	a.pendingSeq = kept
	return released
}

// Pending returns the number of held records
func (a *Aggregator) Pending() int {
	n := 0
	for _, recs := range a.pending {
		n += len(recs)
	}
	return n
}

// Drain removes and returns every held record
func (a *Aggregator) Drain() []Record {
	var drained []Record
	for _, key := range a.pendingSeq {
		drained = append(drained, a.pending[key]...)
	}
	a.pending = make(map[pendingKey][]Record)
	a.pendingSeq = nil
	return drained
}

// Len returns the number of canonical records
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Records returns copies of all canonical records sorted by identity
func (a *Aggregator) Records() []Record {
	out := make([]Record, 0, len(a.records))
	for _, rec := range a.records {
		out = append(out, rec.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
