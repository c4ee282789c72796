package annotation

// Parse turns one statement into the records it describes on a page. The
// records carry the page context token; domains are assigned afterwards by a
// Resolver.
func Parse(stmt Statement, page int, context string) []Record {
	switch s := stmt.(type) {
	case *MainStatement:
		return ParseMain(s, page, context)
	case *SuppStatement:
		return ParseSupp(s, page, context)
	default:
		return nil
	}
}

// ParseMain emits one record per surviving primary segment, followed by one
// record per test code qualifier.
//
// "TRORRES / TRORRESU when TRTESTCD = SUMDIAM" yields TRORRES and TRORRESU,
// both described by "TRTESTCD = SUMDIAM", and a standalone TRTESTCD record.
func ParseMain(stmt *MainStatement, page int, context string) []Record {
	if stmt == nil {
		return nil
	}

	qualifying := stmt.Qualifier.Clauses()

	var records []Record
	for _, seg := range stmt.Segments {
		if seg.Folded || seg.Name == "" {
			continue
		}
		clauses := make([]string, 0, 1+len(qualifying))
		if seg.HasValue {
			clauses = append(clauses, seg.Clause())
		}
		clauses = append(clauses, qualifying...)
		records = append(records, newRecord(seg.Name, context, stmt.Text, page, false, clauses))
	}

	for _, code := range stmt.Qualifier.TestCodes() {
		clause := code + " = " + stmt.Qualifier.Value
		records = append(records, newRecord(code, context, stmt.Text, page, false, []string{clause}))
	}
	return records
}

// ParseSupp emits one supplemental record per variable named before " in ".
func ParseSupp(stmt *SuppStatement, page int, context string) []Record {
	if stmt == nil {
		return nil
	}

	records := make([]Record, 0, len(stmt.Variables))
	for _, variable := range stmt.Variables {
		var clauses []string
		if stmt.HasValue {
			clauses = append(clauses, variable+" = "+stmt.Value)
		}
		if stmt.When != "" {
			clauses = append(clauses, stmt.When)
		}
		rec := newRecord(variable, context, stmt.Text, page, true, clauses)
		rec.Domain = stmt.Dataset
		records = append(records, rec)
	}
	return records
}
