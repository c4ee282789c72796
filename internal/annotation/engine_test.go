package annotation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pdferrors "github.com/a3tai/acrf-annotations/internal/pdf/errors"
)

var (
	red   = []float64{1, 0, 0}
	green = []float64{0, 1, 0}
	blue  = []float64{0, 0, 1}
)

// fakeDocument serves annotations from memory, keyed by 1-based page
type fakeDocument struct {
	pages     int
	annots    map[int][]RawAnnotation
	failPage  int
	requested []int
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) PageAnnotations(page int) ([]RawAnnotation, error) {
	d.requested = append(d.requested, page)
	if page == d.failPage {
		return nil, errors.New("broken page tree")
	}
	return d.annots[page], nil
}

func annot(color []float64, text string) RawAnnotation {
	return RawAnnotation{Color: color, Contents: []byte(text)}
}

func recordIDs(recs []Record) []string {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids
}

func findRecord(t *testing.T, recs []Record, id string) Record {
	t.Helper()
	for _, rec := range recs {
		if rec.ID == id {
			return rec
		}
	}
	require.Failf(t, "record not found", "id %s", id)
	return Record{}
}

func sampleDocument() *fakeDocument {
	return &fakeDocument{
		pages: 3,
		annots: map[int][]RawAnnotation{
			1: {annot(red, "AETERM")},
			2: {
				annot(red, "AE (Adverse Events)"),
				annot(red, "AESTDTC"),
				annot(blue, "VS (Vital Signs)"),
				annot(blue, "VSORRES when VSTESTCD = TEMP"),
				annot(blue, "VSPOS in SUPPVS"),
			},
			3: {
				annot(red, "AESTDTC"),
				annot(green, "Note:\r\nsee page 2"),
			},
		},
	}
}

func TestEngine_Run_PageStrategy(t *testing.T) {
	doc := sampleDocument()
	engine := NewEngine(nil, Options{Strategy: StrategyPage}, zap.NewNop())

	recs, report, err := engine.Run(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, doc.requested, "page 1 is never read")
	assert.Equal(t, []string{"AE-AESTDTC", "SUPPVS-VSPOS", "VS-VSORRES", "VS-VSTESTCD"}, recordIDs(recs))

	ae := findRecord(t, recs, "AE-AESTDTC")
	assert.Equal(t, []int{2}, ae.PageNumbers(), "page 3 has no declaration for red")

	vs := findRecord(t, recs, "VS-VSORRES")
	assert.Equal(t, []string{"VSTESTCD = TEMP"}, vs.Pages[0].Description)

	supp := findRecord(t, recs, "SUPPVS-VSPOS")
	assert.True(t, supp.Supplemental)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 7, report.Annotations)
	assert.Equal(t, 3, report.Main)
	assert.Equal(t, 1, report.Supplemental)
	assert.Equal(t, 3, report.Other)
	assert.Equal(t, 1, report.Orphans)
	assert.Equal(t, 4, report.Records)
}

func TestEngine_Run_HybridFallsBackToPrefix(t *testing.T) {
	recs, report, err := NewEngine(nil, DefaultOptions(), nil).Run(context.Background(), sampleDocument())
	require.NoError(t, err)

	ae := findRecord(t, recs, "AE-AESTDTC")
	assert.Equal(t, []int{2, 3}, ae.PageNumbers())
	assert.Equal(t, 0, report.Orphans)
}

func TestEngine_Run_ContextDoesNotLeakAcrossPages(t *testing.T) {
	doc := &fakeDocument{
		pages: 3,
		annots: map[int][]RawAnnotation{
			2: {annot(red, "CM (Concomitant Medications)")},
			3: {annot(red, "XXTRT")},
		},
	}

	recs, report, err := NewEngine(nil, Options{Strategy: StrategyPage}, nil).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1, report.Orphans)
}

func TestEngine_Run_DocumentScopeReplaysOrphans(t *testing.T) {
	doc := &fakeDocument{
		pages: 4,
		annots: map[int][]RawAnnotation{
			2: {annot(green, "LBORRES when LBTESTCD = HGB")},
			3: {annot(green, "LB (Laboratory Test Results)")},
			4: {annot(red, "XXTRT")},
		},
	}

	tests := []struct {
		name     string
		scope    OrphanScope
		ids      []string
		orphans  int
		replayed int
	}{
		{name: "page scope drops", scope: OrphanScopePage, ids: []string{}, orphans: 3},
		{name: "document scope replays", scope: OrphanScopeDocument, ids: []string{"LB-LBORRES", "LB-LBTESTCD"}, orphans: 1, replayed: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(nil, Options{Strategy: StrategyPage, OrphanScope: tt.scope}, nil)
			recs, report, err := engine.Run(context.Background(), doc)
			require.NoError(t, err)

			assert.Equal(t, tt.ids, recordIDs(recs))
			assert.Equal(t, tt.orphans, report.Orphans)
			assert.Equal(t, tt.replayed, report.Replayed)
			for _, rec := range recs {
				assert.Equal(t, []int{2}, rec.PageNumbers())
			}
		})
	}
}

func TestEngine_Run_DateAndTimePartsMerge(t *testing.T) {
	doc := &fakeDocument{
		pages: 2,
		annots: map[int][]RawAnnotation{
			2: {
				annot(red, "EC (Exposure as Collected)"),
				annot(red, "Datepart of ECSTDTC"),
				annot(red, "Timepart of ECSTDTC"),
			},
		},
	}

	for _, strategy := range []Strategy{StrategyPage, StrategyPrefix, StrategyHybrid} {
		t.Run(string(strategy), func(t *testing.T) {
			recs, _, err := NewEngine(nil, Options{Strategy: strategy}, nil).Run(context.Background(), doc)
			require.NoError(t, err)

			require.Equal(t, []string{"EC-ECSTDTC"}, recordIDs(recs))
			assert.Equal(t, []PageDescription{{Page: 2, Description: []string{}}}, recs[0].Pages)
		})
	}
}

func TestEngine_Run_DeterministicAcrossWorkers(t *testing.T) {
	doc := &fakeDocument{pages: 40, annots: map[int][]RawAnnotation{}}
	for page := 2; page <= 40; page++ {
		doc.annots[page] = []RawAnnotation{
			annot(red, "AE (Adverse Events)"),
			annot(red, fmt.Sprintf("AETERM = TERM%d", page%5)),
			annot(blue, "LBORRES when LBTESTCD = HGB"),
		}
	}

	serial, _, err := NewEngine(nil, Options{Workers: 1}, nil).Run(context.Background(), doc)
	require.NoError(t, err)
	parallel, _, err := NewEngine(nil, Options{Workers: 8}, nil).Run(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	term := findRecord(t, serial, "AE-AETERM")
	assert.Len(t, term.Pages, 39)
}

func TestEngine_Run_SkipsAnnotationsWithoutText(t *testing.T) {
	doc := &fakeDocument{
		pages: 2,
		annots: map[int][]RawAnnotation{
			2: {
				{Color: red, ObjectNum: 12},
				annot(nil, "AESTDTC"),
			},
		},
	}

	recs, report, err := NewEngine(nil, Options{Strategy: StrategyPrefix}, nil).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"AE-AESTDTC"}, recordIDs(recs))

	require.Len(t, report.Issues.Warnings, 1)
	issue := report.Issues.Warnings[0]
	assert.Equal(t, pdferrors.ErrorTypeInvalidAnnotation, issue.Type)
	assert.Equal(t, 2, issue.PageNumber)
	assert.Equal(t, 12, issue.ObjectNum)
}

func TestEngine_Run_Errors(t *testing.T) {
	engine := NewEngine(nil, DefaultOptions(), nil)

	_, _, err := engine.Run(context.Background(), nil)
	assert.Error(t, err)

	_, _, err = engine.Run(context.Background(), &fakeDocument{pages: 3, failPage: 3})
	assert.ErrorContains(t, err, "page 3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = engine.Run(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Run_UsesDecoder(t *testing.T) {
	doc := &fakeDocument{pages: 2, annots: map[int][]RawAnnotation{2: {annot(red, "ignored")}}}
	decode := func([]byte) string { return "  CMTRT\n" }

	recs, _, err := NewEngine(decode, DefaultOptions(), nil).Run(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"CM-CMTRT"}, recordIDs(recs))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AESTDTC", Normalize("  AESTDTC\r\n"))
	assert.Equal(t, "VSORRES when VSTESTCD = TEMP", Normalize("VSORRES\r\nwhen VSTESTCD = TEMP"))
	assert.Equal(t, "A B C", Normalize("A\nB\rC"))
	assert.Equal(t, "", Normalize("\r\n"))
}
