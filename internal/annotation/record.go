package annotation

import (
	"fmt"
	"strings"
)

// Record is one inferred fact about one variable, possibly seen on several pages
type Record struct {
	ID            string            `json:"id"`
	Domain        string            `json:"domain"`
	DomainContext string            `json:"-"`
	Variable      string            `json:"variable"`
	Supplemental  bool              `json:"supplemental"`
	Pages         []PageDescription `json:"pages"`
	Raw           string            `json:"raw"`
}

// PageDescription holds the clauses attached to a record on one page
type PageDescription struct {
	Page        int      `json:"page"`
	Description []string `json:"description"`
}

// Has reports whether the exact clause is already present on this page
func (p *PageDescription) Has(clause string) bool {
	for _, existing := range p.Description {
		if existing == clause {
			return true
		}
	}
	return false
}

// Add appends a clause unless it is already present, keeping insertion order
func (p *PageDescription) Add(clause string) bool {
	if p.Has(clause) {
		return false
	}
	p.Description = append(p.Description, clause)
	return true
}

// newRecord builds a single-page record. The identity is left empty until a
// domain is assigned.
func newRecord(variable, context, raw string, page int, supplemental bool, clauses []string) Record {
	desc := PageDescription{Page: page}
	for _, clause := range clauses {
		desc.Add(clause)
	}
	if desc.Description == nil {
		desc.Description = []string{}
	}
	return Record{
		DomainContext: context,
		Variable:      strings.TrimSpace(variable),
		Supplemental:  supplemental,
		Pages:         []PageDescription{desc},
		Raw:           raw,
	}
}

// AssignDomain sets the domain and derives the identity. A record that already
// carries an identity is left untouched.
func (r *Record) AssignDomain(domain string) {
	if r.ID != "" {
		return
	}
	domain = strings.TrimSpace(domain)
	r.Domain = domain
	r.ID = Identity(domain, r.Variable)
}

// Resolved reports whether the record has an identity
func (r *Record) Resolved() bool {
	return r.ID != ""
}

// Identity formats the canonical record key, empty when domain is empty
func Identity(domain, variable string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s", domain, strings.TrimSpace(variable))
}

// PageNumbers returns the pages of the history in order
func (r *Record) PageNumbers() []int {
	pages := make([]int, 0, len(r.Pages))
	for _, p := range r.Pages {
		pages = append(pages, p.Page)
	}
	return pages
}

// clone deep-copies the record so the aggregator never shares slices with callers.
func (r Record) clone() Record {
	out := r
	out.Pages = make([]PageDescription, len(r.Pages))
	for i, p := range r.Pages {
		out.Pages[i] = PageDescription{
			Page:        p.Page,
			Description: append([]string{}, p.Description...),
		}
	}
	return out
}
