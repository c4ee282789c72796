// Package export turns canonical annotation records into the define-style
// tables reviewers work with: Variables, ValueLevel and Raw.
package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/acrf-annotations/internal/annotation"
)

// Table and column names
const (
	VariablesTable  = "Variables"
	ValueLevelTable = "ValueLevel"
	RawTable        = "Raw"

	// QVAL is the value variable of a supplemental qualifier dataset
	QVAL = "QVAL"
	// OriginCRF marks a variable collected on the CRF
	OriginCRF = "CRF"

	orresSuffix = "ORRES"
	equalWord   = "EQ"
)

var (
	variablesHeader = []string{
		"Order", "Dataset", "Variable", "Label", "Data Type", "Length",
		"Significant Digits", "Format", "Mandatory", "Assigned Value",
		"Codelist", "Common", "Origin", "Source", "Pages",
	}
	valueLevelHeader = []string{
		"Order", "Dataset", "Variable", "Where Clause", "Label", "Data Type",
		"Length", "Significant Digits", "Format", "Mandatory", "Assigned Value",
		"Codelist", "Origin", "Source", "Pages",
	}
	rawHeader = []string{"Domain", "Variable", "Description", "Pages"}
)

// Table is a header plus string rows
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Tables holds the three exported tables
type Tables struct {
	Variables  Table `json:"variables"`
	ValueLevel Table `json:"value_level"`
	Raw        Table `json:"raw"`
}

// All returns the tables in sheet order
func (t *Tables) All() []Table {
	return []Table{t.Variables, t.ValueLevel, t.Raw}
}

// entry is one row key accumulated over pages
type entry struct {
	dataset  string
	variable string
	clause   string
	pages    map[int]struct{}
}

type entrySet struct {
	entries map[string]*entry
}

func newEntrySet() *entrySet {
	return &entrySet{entries: make(map[string]*entry)}
}

func (s *entrySet) add(key, dataset, variable, clause string, page int) {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{dataset: dataset, variable: variable, clause: clause, pages: make(map[int]struct{})}
		s.entries[key] = e
	}
	e.pages[page] = struct{}{}
}

// sorted returns entries ordered by dataset, variable and clause
func (s *entrySet) sorted() []*entry {
	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dataset != out[j].dataset {
			return out[i].dataset < out[j].dataset
		}
		if out[i].variable != out[j].variable {
			return out[i].variable < out[j].variable
		}
		return out[i].clause < out[j].clause
	})
	return out
}

func (e *entry) pageList() string {
	pages := make([]int, 0, len(e.pages))
	for p := range e.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, " ")
}

// Build derives all three tables from the engine output
func Build(records []annotation.Record) *Tables {
	return &Tables{
		Variables:  BuildVariables(records),
		ValueLevel: BuildValueLevel(records),
		Raw:        BuildRaw(records),
	}
}

// qvalRecord maps a supplemental record to the QVAL variable of its dataset,
// described on every page by "QNAM = <variable>".
func qvalRecord(rec annotation.Record) annotation.Record {
	pages := make([]annotation.PageDescription, 0, len(rec.Pages))
	for _, p := range rec.Pages {
		pages = append(pages, annotation.PageDescription{
			Page:        p.Page,
			Description: []string{"QNAM = " + rec.Variable},
		})
	}
	return annotation.Record{
		ID:           annotation.Identity(rec.Domain, QVAL),
		Domain:       rec.Domain,
		Variable:     QVAL,
		Supplemental: true,
		Pages:        pages,
		Raw:          rec.Raw,
	}
}

// BuildVariables lists one row per dataset variable with every page it
// appears on. Supplemental records collapse into their dataset's QVAL and
// RELREC is left out.
func BuildVariables(records []annotation.Record) Table {
	set := newEntrySet()
	for _, rec := range records {
		if rec.Supplemental {
			rec = qvalRecord(rec)
		}
		if rec.Variable == annotation.RelatedRecords {
			continue
		}
		for _, p := range rec.Pages {
			set.add(rec.ID, rec.Domain, rec.Variable, "", p.Page)
		}
	}

	rows := make([][]string, 0, len(set.entries))
	for _, e := range set.sorted() {
		rows = append(rows, []string{
			"", e.dataset, e.variable, "", "", "", "", "", "", "", "", "",
			OriginCRF, "", e.pageList(),
		})
	}
	return Table{Name: VariablesTable, Header: variablesHeader, Rows: rows}
}

// BuildValueLevel lists where clauses of result variables qualified by a
// test code and of supplemental QVAL entries. Clauses render "=" as "EQ".
func BuildValueLevel(records []annotation.Record) Table {
	set := newEntrySet()
	for _, rec := range records {
		switch {
		case rec.Supplemental:
			rec = qvalRecord(rec)
		case strings.HasSuffix(rec.Variable, orresSuffix):
		default:
			continue
		}

		for _, p := range rec.Pages {
			for _, clause := range p.Description {
				if strings.HasSuffix(rec.Variable, orresSuffix) && !strings.Contains(clause, annotation.TestCodeSuffix) {
					continue
				}
				if strings.TrimSpace(clause) == "" {
					continue
				}
				set.add(rec.ID+"-"+clause, rec.Domain, rec.Variable, clause, p.Page)
			}
		}
	}

	rows := make([][]string, 0, len(set.entries))
	for _, e := range set.sorted() {
		rows = append(rows, []string{
			"", e.dataset, e.variable, strings.ReplaceAll(e.clause, annotation.EqualSign, equalWord),
			"", "", "", "", "", "", "", "",
			OriginCRF, "", e.pageList(),
		})
	}
	return Table{Name: ValueLevelTable, Header: valueLevelHeader, Rows: rows}
}

// BuildRaw lists every (record, clause) pair with its pages; a record seen
// without clauses gets one row with an empty description.
func BuildRaw(records []annotation.Record) Table {
	set := newEntrySet()
	for _, rec := range records {
		for _, p := range rec.Pages {
			if len(p.Description) == 0 {
				set.add(rec.ID, rec.Domain, rec.Variable, "", p.Page)
				continue
			}
			for _, clause := range p.Description {
				set.add(rec.ID+"-"+clause, rec.Domain, rec.Variable, clause, p.Page)
			}
		}
	}

	rows := make([][]string, 0, len(set.entries))
	for _, e := range set.sorted() {
		rows = append(rows, []string{e.dataset, e.variable, e.clause, e.pageList()})
	}
	return Table{Name: RawTable, Header: rawHeader, Rows: rows}
}
