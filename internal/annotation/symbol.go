package annotation

import "regexp"

// Grammar delimiters and keywords recognized in annotation text
const (
	When           = " when "
	In             = " in "
	Slash          = "/"
	SlashWithBlank = " / "
	EqualSign      = "="
	Space          = " "

	DatepartPrefix = "Datepart of "
	TimepartPrefix = "Timepart of "

	// TestCodeSuffix marks a qualifier that names a test code variable
	TestCodeSuffix = "TESTCD"

	// SuppPrefix prefixes the code of a supplemental dataset
	SuppPrefix = "SUPP"

	// RelatedRecords is the cross-reference dataset name
	RelatedRecords = "RELREC"
)

var (
	// statementPattern is the shape shared by every data statement.
	statementPattern = regexp.MustCompile(`^((If\s.+?then\s)|(Datepart\sof\s)|(Timepart\sof\s))?[A-Z0-9]{4,8}.*`)

	// declarationPattern excludes "RELREC (Related Records)" style lines.
	declarationPattern = regexp.MustCompile(`^[A-Z]{2,6}\s?\(`)

	suppPattern = regexp.MustCompile(`SUPP[A-Z]{2}`)

	// suppCodePattern captures a full supplemental dataset code.
	suppCodePattern = regexp.MustCompile(`SUPP[A-Z0-9]{2,}`)

	conditionalPattern = regexp.MustCompile(`If\s\w+?\sthen\s(.*)`)

	// Page domain declarations: "AE (Adverse Events)", "DM = ...", "RELREC="
	domainDeclaration       = regexp.MustCompile(`^([A-Z]{2,6})\s?\(.*?\)`)
	domainAssignDeclaration = regexp.MustCompile(`^([A-Z]{2}|RELREC)\s?=`)
)
