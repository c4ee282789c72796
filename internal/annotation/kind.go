package annotation

// Kind is the statement kind an annotation text represents
type Kind int

const (
	// KindOther is prose, a page domain declaration or anything unparseable
	KindOther Kind = iota
	// KindMain is a statement about variables of a main dataset
	KindMain
	// KindSupplemental is a statement naming a SUPP-- dataset
	KindSupplemental
)

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindSupplemental:
		return "supplemental"
	default:
		return "other"
	}
}

// Classify maps one normalized annotation text to exactly one Kind
func Classify(text string) Kind {
	if !statementPattern.MatchString(text) {
		return KindOther
	}

	// "RELREC (Related Records)" declares the page domain
	if declarationPattern.MatchString(text) {
		return KindOther
	}

	if suppPattern.MatchString(text) {
		return KindSupplemental
	}
	return KindMain
}
