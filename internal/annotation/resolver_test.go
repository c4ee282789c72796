package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorToken(t *testing.T) {
	assert.Equal(t, "100", ColorToken([]float64{1, 0, 0}))
	assert.Equal(t, "001", ColorToken([]float64{0, 0, 1}))
	assert.Equal(t, "111", ColorToken([]float64{1, 1, 1}))
	assert.Equal(t, "000", ColorToken([]float64{0.99, 0.5, 0}))
	assert.Equal(t, "", ColorToken(nil))
}

func TestDeclaredDomain(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"AE (Adverse Events)", "AE"},
		{"AE(Adverse Events)", "AE"},
		{"RELREC (Related Records)", "RELREC"},
		{"DM = 人口学特征", "DM"},
		{"RELREC=", "RELREC"},
		{"AESTDTC", ""},
		{"LBTEST = Erythrocytes", ""},
		{"See CRF Page", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeclaredDomain(tt.text))
		})
	}
}

func TestPageContext_FirstDeclarationWins(t *testing.T) {
	pc := NewPageContext(4)
	assert.True(t, pc.Declare("AE (Adverse Events)"), "the empty token carries declarations made before any colour")
	domain, _ := pc.Lookup("")
	assert.Equal(t, "AE", domain)

	pc = NewPageContext(4)
	pc.ObserveColor([]float64{1, 0, 0})
	assert.True(t, pc.Declare("AE (Adverse Events)"))
	assert.False(t, pc.Declare("CM (Concomitant Medications)"))
	assert.False(t, pc.Declare("AESTDTC"))

	pc.ObserveColor([]float64{0, 0, 1})
	assert.Equal(t, "001", pc.Current())
	assert.True(t, pc.Declare("VS = Vital Signs"))

	domain, ok := pc.Lookup("100")
	assert.True(t, ok)
	assert.Equal(t, "AE", domain)
	domain, _ = pc.Lookup("001")
	assert.Equal(t, "VS", domain)
	assert.Equal(t, []string{"100", "001"}, pc.Declared())
}

func TestPrefixResolver_Resolve(t *testing.T) {
	r := NewPrefixResolver(nil)

	tests := []struct {
		variable string
		expected string
	}{
		{"AESTDTC", "AE"},
		{"VSORRES", "VS"},
		{"AGE", "DM"},
		{"BRTHDTC", "DM"},
		{"LNKID", "TR"},
		{"RELREC", "RELREC"},
		{"X", ""},
		{"a1TEST", ""},
		{"1AVAL", ""},
		{"阳性", ""},
	}

	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.variable))
		})
	}
}

func TestResolver_Domain(t *testing.T) {
	pc := NewPageContext(2)
	pc.ObserveColor([]float64{1, 0, 0})
	require.True(t, pc.Declare("VS (Vital Signs)"))

	main := newRecord("AESTDTC", "100", "AESTDTC", 2, false, nil)
	stray := newRecord("AESTDTC", "010", "AESTDTC", 2, false, nil)
	supp := newRecord("AESI", "100", "AESI in SUPPAE", 2, true, nil)
	supp.Domain = "SUPPAE"
	bareSupp := newRecord("VSPOS", "100", "VSPOS in", 2, true, nil)

	tests := []struct {
		name     string
		strategy Strategy
		rec      Record
		expected string
	}{
		{"page uses the declaration", StrategyPage, main, "VS"},
		{"page without declaration", StrategyPage, stray, ""},
		{"prefix ignores the page", StrategyPrefix, main, "AE"},
		{"hybrid prefers the page", StrategyHybrid, main, "VS"},
		{"hybrid falls back to the prefix", StrategyHybrid, stray, "AE"},
		{"supp page derives from the page domain", StrategyPage, supp, "SUPPVS"},
		{"supp prefix keeps the declared dataset", StrategyPrefix, supp, "SUPPAE"},
		{"supp hybrid keeps the declared dataset", StrategyHybrid, supp, "SUPPAE"},
		{"supp hybrid without dataset uses the page", StrategyHybrid, bareSupp, "SUPPVS"},
		{"supp prefix without dataset uses the prefix", StrategyPrefix, bareSupp, "SUPPVS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.strategy, nil)
			rec := tt.rec
			assert.Equal(t, tt.expected, r.Domain(&rec, pc))
		})
	}
}

func TestResolver_Apply(t *testing.T) {
	pc := NewPageContext(5)
	pc.ObserveColor([]float64{1, 0, 0})
	pc.Declare("AE (Adverse Events)")

	recs := []Record{
		newRecord("AESTDTC", "100", "AESTDTC", 5, false, nil),
		newRecord("LBORRES", "001", "LBORRES", 5, false, nil),
	}

	resolved, orphans := NewResolver(StrategyPage, nil).Apply(recs, pc)
	require.Len(t, resolved, 1)
	require.Len(t, orphans, 1)
	assert.Equal(t, "AE-AESTDTC", resolved[0].ID)
	assert.Equal(t, "LBORRES", orphans[0].Variable)
	assert.False(t, orphans[0].Resolved())

	require.Len(t, recs, 2, "input slice is not modified")
	assert.False(t, recs[0].Resolved())
	assert.Equal(t, "LBORRES", recs[1].Variable)
}

func TestParseStrategy(t *testing.T) {
	for input, expected := range map[string]Strategy{
		"":        StrategyHybrid,
		"hybrid":  StrategyHybrid,
		"PAGE":    StrategyPage,
		" prefix": StrategyPrefix,
	} {
		got, err := ParseStrategy(input)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := ParseStrategy("colour")
	assert.Error(t, err)
}
