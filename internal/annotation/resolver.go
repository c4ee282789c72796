package annotation

import (
	"fmt"
	"strings"
)

// Strategy selects how bare variable names are mapped to a dataset
type Strategy string

const (
	// StrategyPage resolves through the colour-keyed page declarations only
	StrategyPage Strategy = "page"
	// StrategyPrefix resolves from the variable prefix and the exception table
	StrategyPrefix Strategy = "prefix"
	// StrategyHybrid tries page declarations first and falls back to the prefix
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyPage:
		return StrategyPage, nil
	case StrategyPrefix:
		return StrategyPrefix, nil
	case StrategyHybrid, "":
		return StrategyHybrid, nil
	default:
		return "", fmt.Errorf("unknown domain strategy: %s (must be one of: page, prefix, hybrid)", s)
	}
}

// PageContext is the per-page state of the colour-marker strategy. It lives
// for exactly one page and is never shared across pages.
type PageContext struct {
	Page    int
	current string
	domains map[string]string
	order   []string
}

// NewPageContext creates an empty context for one page
func NewPageContext(page int) *PageContext {
	return &PageContext{
		Page:    page,
		domains: make(map[string]string),
	}
}

// ObserveColor switches the current context token to the one derived from an
// annotation colour.
func (pc *PageContext) ObserveColor(color []float64) {
	pc.current = ColorToken(color)
}

// Current returns the context token of the most recent coloured annotation
func (pc *PageContext) Current() string {
	return pc.current
}

// Declare records the page domain for the current token if text is a
// declaration line and no domain is known yet. It reports whether a new
// declaration was recorded.
func (pc *PageContext) Declare(text string) bool {
	if _, ok := pc.domains[pc.current]; ok {
		return false
	}
	domain := DeclaredDomain(text)
	if domain == "" {
		return false
	}
	pc.domains[pc.current] = domain
	pc.order = append(pc.order, pc.current)
	return true
}

// Lookup returns the domain declared for a context token
func (pc *PageContext) Lookup(token string) (string, bool) {
	domain, ok := pc.domains[token]
	return domain, ok
}

// Declared returns the tokens that received a declaration, in order
func (pc *PageContext) Declared() []string {
	return append([]string(nil), pc.order...)
}

// ColorToken builds the 3-bit context token from an RGB colour vector, one
// digit per component, "1" for full intensity.
func ColorToken(color []float64) string {
	var b strings.Builder
	for i := 0; i < 3 && i < len(color); i++ {
		if color[i] == 1.0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// DeclaredDomain extracts the dataset code from "AE (Adverse Events)",
// "DM = Demographics" or "RELREC=" lines. It returns "" for any other text.
func DeclaredDomain(text string) string {
	if m := domainDeclaration.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := domainAssignDeclaration.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// PrefixResolver maps a variable to a dataset from its first two characters,
// overridden by an exception table
type PrefixResolver struct {
	exceptions *ExceptionTable
}

// NewPrefixResolver creates a prefix resolver; a nil table uses the defaults
func NewPrefixResolver(exceptions *ExceptionTable) *PrefixResolver {
	if exceptions == nil {
		exceptions = DefaultExceptions()
	}
	return &PrefixResolver{exceptions: exceptions}
}

// Resolve returns the dataset code for a variable, "" when none can be derived
func (r *PrefixResolver) Resolve(variable string) string {
	variable = strings.TrimSpace(variable)
	if domain, ok := r.exceptions.Lookup(variable); ok {
		return domain
	}
	if len(variable) < 2 || !isASCII(variable) {
		return ""
	}
	prefix := variable[:2]
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < 'A' || prefix[i] > 'Z' {
			return ""
		}
	}
	return prefix
}

// Resolver assigns domains to the records of one page according to a Strategy
type Resolver struct {
	strategy Strategy
	prefix   *PrefixResolver
}

// NewResolver creates a resolver for the given strategy
func NewResolver(strategy Strategy, exceptions *ExceptionTable) *Resolver {
	return &Resolver{
		strategy: strategy,
		prefix:   NewPrefixResolver(exceptions),
	}
}

// Strategy returns the active strategy
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Domain computes the dataset code for a record on the page described by pc.
// An empty result means the record is an orphan for now.
func (r *Resolver) Domain(rec *Record, pc *PageContext) string {
	if rec.Supplemental {
		return r.suppDomain(rec, pc)
	}

	switch r.strategy {
	case StrategyPage:
		return r.pageDomain(rec, pc)
	case StrategyPrefix:
		return r.prefix.Resolve(rec.Variable)
	default:
		if domain := r.pageDomain(rec, pc); domain != "" {
			return domain
		}
		return r.prefix.Resolve(rec.Variable)
	}
}

func (r *Resolver) suppDomain(rec *Record, pc *PageContext) string {
	declared := rec.Domain

	switch r.strategy {
	case StrategyPage:
		if domain := r.pageDomain(rec, pc); domain != "" {
			return SuppPrefix + domain
		}
		return ""
	case StrategyPrefix:
		if declared != "" {
			return declared
		}
		if domain := r.prefix.Resolve(rec.Variable); domain != "" {
			return SuppPrefix + domain
		}
		return ""
	default:
		if declared != "" {
			return declared
		}
		if domain := r.pageDomain(rec, pc); domain != "" {
			return SuppPrefix + domain
		}
		if domain := r.prefix.Resolve(rec.Variable); domain != "" {
			return SuppPrefix + domain
		}
		return ""
	}
}

func (r *Resolver) pageDomain(rec *Record, pc *PageContext) string {
	if pc == nil {
		return ""
	}
	domain, _ := pc.Lookup(rec.DomainContext)
	return domain
}

// Apply assigns a domain to every unresolved record it can and splits recs
// into resolved records and orphans. recs itself is left untouched.
func (r *Resolver) Apply(recs []Record, pc *PageContext) (resolved, orphans []Record) {
	resolved = recs[:0:0]
	for _, rec := range recs {
		if !rec.Resolved() {
			domain := r.Domain(&rec, pc)
			if domain == "" {
				orphans = append(orphans, rec)
				continue
			}
			rec.AssignDomain(domain)
		}
		resolved = append(resolved, rec)
	}
	return resolved, orphans
}
