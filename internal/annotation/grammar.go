package annotation

import (
	"strings"
	"unicode/utf8"
)

// maxVariableLength is the longest plausible variable name
const maxVariableLength = 8

// Statement is a tokenized annotation statement. The concrete type is either
// *MainStatement or *SuppStatement.
type Statement interface {
	Kind() Kind
	Source() string
}

// Segment is one slash-separated "NAME = VALUE" part of a primary clause
type Segment struct {
	Name     string
	Value    string
	HasValue bool
	// Folded marks a segment whose name was absorbed into a previous value
	Folded bool
}

// Clause renders the segment as a description clause
func (s Segment) Clause() string {
	return s.Name + " = " + s.Value
}

// Qualifier is the clause following " when "
type Qualifier struct {
	// Names and Value are set for "A / B = X" qualifiers
	Names []string
	Value string
	// Free holds the verbatim clause when it carries no "="
	Free string
}

// Assigns reports whether the qualifier is of the "NAME = VALUE" form
func (q *Qualifier) Assigns() bool {
	return q != nil && len(q.Names) > 0
}

// Clauses renders the qualifier as description clauses
func (q *Qualifier) Clauses() []string {
	if q == nil {
		return nil
	}
	if !q.Assigns() {
		if q.Free == "" {
			return nil
		}
		return []string{q.Free}
	}
	clauses := make([]string, 0, len(q.Names))
	for _, name := range q.Names {
		clauses = append(clauses, name+" = "+q.Value)
	}
	return clauses
}

// TestCodes returns the qualifier names that denote test code variables
func (q *Qualifier) TestCodes() []string {
	if !q.Assigns() {
		return nil
	}
	var codes []string
	for _, name := range q.Names {
		if strings.HasSuffix(name, TestCodeSuffix) {
			codes = append(codes, name)
		}
	}
	return codes
}

// MainStatement is a statement about variables of a main dataset, e.g.
// "DSTERM / DSDECOD = ENTERED INTO TRIAL when DSCAT = PROTOCOL MILESTONE"
type MainStatement struct {
	Text      string
	Segments  []Segment
	Qualifier *Qualifier
}

// Kind implements Statement
func (s *MainStatement) Kind() Kind { return KindMain }

// Source implements Statement
func (s *MainStatement) Source() string { return s.Text }

// SuppStatement is a statement naming a supplemental dataset, e.g.
// "PECLSIG=N in SUPPPE" or "DDORRES in SUPPDD when DDTESTCD = PRCDTH"
type SuppStatement struct {
	Text      string
	Variables []string
	Value     string
	HasValue  bool
	// Dataset is the SUPP-- code declared in the text, empty when absent
	Dataset string
	When    string
}

// Kind implements Statement
func (s *SuppStatement) Kind() Kind { return KindSupplemental }

// Source implements Statement
func (s *SuppStatement) Source() string { return s.Text }

// Tokenize turns a classified text into its statement variant. It returns nil
// for KindOther and for supplemental texts that name no dataset.
func Tokenize(kind Kind, text string) Statement {
	switch kind {
	case KindMain:
		return tokenizeMain(text)
	case KindSupplemental:
		if stmt := tokenizeSupp(text); stmt != nil {
			return stmt
		}
		return nil
	default:
		return nil
	}
}

func tokenizeMain(text string) *MainStatement {
	primary, qualifier, found := splitWhen(text)

	stmt := &MainStatement{
		Text:     text,
		Segments: resolveSegments(splitSegments(primary)),
	}
	if found {
		stmt.Qualifier = parseQualifier(qualifier)
	}
	return stmt
}

func tokenizeSupp(text string) *SuppStatement {
	primary, when, found := splitWhen(text)

	idx := strings.LastIndex(primary, In)
	if idx < 0 {
		return nil
	}
	leading := primary[:idx]
	trailing := strings.TrimSpace(primary[idx+len(In):])

	stmt := &SuppStatement{
		Text:    text,
		Dataset: suppCodePattern.FindString(trailing),
	}
	if found {
		stmt.When = when
	}

	parts := strings.Split(leading, EqualSign)
	names := stripConditional(parts[0])
	if len(parts) > 1 {
		stmt.Value = strings.TrimSpace(parts[1])
		stmt.HasValue = true
	}

	names = strings.ReplaceAll(names, SlashWithBlank, Slash)
	for _, name := range strings.Split(names, Slash) {
		name = stripPrefixes(name)
		if name == "" {
			continue
		}
		stmt.Variables = append(stmt.Variables, name)
	}
	return stmt
}

// splitWhen separates the primary clause from the qualifying clause at the
// first " when ".
func splitWhen(text string) (primary, qualifier string, found bool) {
	parts := strings.SplitN(text, When, 2)
	if len(parts) < 2 {
		return parts[0], "", false
	}
	return parts[0], parts[1], true
}

// splitSegments splits a primary clause on "/" and each part on "=".
func splitSegments(primary string) []Segment {
	parts := strings.Split(primary, Slash)
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		pair := strings.Split(part, EqualSign)
		seg := Segment{Name: strings.TrimSpace(pair[0])}
		if len(pair) > 1 {
			seg.Value = strings.TrimSpace(pair[1])
			seg.HasValue = true
		}
		segments = append(segments, seg)
	}
	return segments
}

// resolveSegments applies prefix stripping, continuation folding and value
// borrowing in a single left-to-right pass. Borrowing for segment i sees the
// raw value of segment i+1, and folding into segment i-1 sees a value that
// segment i-1 may have borrowed.
func resolveSegments(segments []Segment) []Segment {
	for i := range segments {
		segments[i].Name = stripPrefixes(segments[i].Name)

		if i > 0 && implausibleName(segments[i].Name) {
			if prev := previousWithValue(segments, i); prev >= 0 {
				segments[prev].Value = segments[prev].Value + SlashWithBlank + segments[i].Name
				segments[i].Folded = true
				continue
			}
		}

		if !segments[i].HasValue && i+1 < len(segments) && segments[i+1].HasValue {
			segments[i].Value = segments[i+1].Value
			segments[i].HasValue = true
		}
	}
	return segments
}

// previousWithValue finds the nearest unfolded segment before i, returning -1
// when it carries no value.
func previousWithValue(segments []Segment, i int) int {
	for j := i - 1; j >= 0; j-- {
		if segments[j].Folded {
			continue
		}
		if segments[j].HasValue {
			return j
		}
		return -1
	}
	return -1
}

// implausibleName reports whether a token cannot be a variable identifier.
func implausibleName(name string) bool {
	return len(name) > maxVariableLength || !isASCII(name)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// stripPrefixes removes "If <word> then " and the date/time part prefixes.
func stripPrefixes(name string) string {
	name = stripConditional(name)
	name = strings.ReplaceAll(name, DatepartPrefix, "")
	name = strings.ReplaceAll(name, TimepartPrefix, "")
	return strings.TrimSpace(name)
}

func stripConditional(s string) string {
	if m := conditionalPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// parseQualifier splits "A / B = X" into names and value, or keeps the
// clause verbatim when it carries no "=".
func parseQualifier(clause string) *Qualifier {
	parts := strings.Split(clause, EqualSign)
	if len(parts) < 2 {
		return &Qualifier{Free: clause}
	}

	q := &Qualifier{Value: strings.TrimSpace(parts[1])}
	for _, name := range strings.Split(strings.TrimSpace(parts[0]), Slash) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		q.Names = append(q.Names, name)
	}
	if len(q.Names) == 0 {
		return &Qualifier{Free: clause}
	}
	return q
}
