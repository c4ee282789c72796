package annotation

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	pdferrors "github.com/a3tai/acrf-annotations/internal/pdf/errors"
)

// FirstAnnotatedPage is the first page read by the engine; page 1 of an
// annotated CRF is the cover and carries no statements.
const FirstAnnotatedPage = 2

// RawAnnotation is one free-text annotation as stored in the document
type RawAnnotation struct {
	// Color is the RGB colour vector, nil when the annotation has none
	Color []float64
	// Contents is the raw text payload, nil when the annotation has none
	Contents []byte
	// ObjectNum identifies the annotation object for diagnostics
	ObjectNum int
}

// Document is a page-ordered source of annotations. Implementations need not
// be safe for concurrent use.
type Document interface {
	PageCount() int
	PageAnnotations(page int) ([]RawAnnotation, error)
}

// DecodeFunc turns a raw annotation payload into text
type DecodeFunc func([]byte) string

// Options configures an Engine
type Options struct {
	Strategy    Strategy
	OrphanScope OrphanScope
	// Workers bounds concurrent page parsing; zero means GOMAXPROCS
	Workers    int
	Exceptions *ExceptionTable
}

// DefaultOptions returns the hybrid strategy with page-scoped orphans
func DefaultOptions() Options {
	return Options{
		Strategy:    StrategyHybrid,
		OrphanScope: OrphanScopePage,
		Workers:     runtime.GOMAXPROCS(0),
		Exceptions:  DefaultExceptions(),
	}
}

// Report summarizes one extraction run
type Report struct {
	Pages        int                        `json:"pages"`
	Annotations  int                        `json:"annotations"`
	Main         int                        `json:"main_statements"`
	Supplemental int                        `json:"supplemental_statements"`
	Other        int                        `json:"other_texts"`
	Records      int                        `json:"records"`
	Orphans      int                        `json:"orphans"`
	Replayed     int                        `json:"replayed"`
	Issues       *pdferrors.ErrorCollection `json:"issues"`
}

// Engine drives a document through decoding, classification, parsing,
// resolution and aggregation.
type Engine struct {
	opts     Options
	decode   DecodeFunc
	resolver *Resolver
	logger   *zap.Logger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(decode DecodeFunc, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if decode == nil {
		decode = func(b []byte) string { return string(b) }
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyHybrid
	}
	if opts.OrphanScope == "" {
		opts.OrphanScope = OrphanScopePage
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Exceptions == nil {
		opts.Exceptions = DefaultExceptions()
	}
	return &Engine{
		opts:     opts,
		decode:   decode,
		resolver: NewResolver(opts.Strategy, opts.Exceptions),
		logger:   logger,
	}
}

// Options returns the effective engine options
func (e *Engine) Options() Options {
	return e.opts
}

type pageResult struct {
	context  *PageContext
	records  []Record
	orphans  []Record
	issues   []*pdferrors.PDFError
	main     int
	supp     int
	other    int
	received int
}

// Run processes every page from FirstAnnotatedPage on and returns the
// canonical records sorted by identity. A document error aborts the run; bad
// annotations are skipped and reported.
func (e *Engine) Run(ctx context.Context, doc Document) ([]Record, *Report, error) {
	if doc == nil {
		return nil, nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidStructure, "no document")
	}

	count := doc.PageCount()
	report := &Report{Issues: pdferrors.NewErrorCollection("")}

	// Documents are not safe for concurrent use, so annotations are fetched in
	// page order before parsing fans out.
	var pages [][]RawAnnotation
	for page := FirstAnnotatedPage; page <= count; page++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		raws, err := doc.PageAnnotations(page)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read annotations of page %d: %w", page, err)
		}
		pages = append(pages, raws)
	}

	results := make([]pageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, raws := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.parsePage(FirstAnnotatedPage+i, raws)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	agg := NewAggregator()
	for i := range results {
		e.fold(agg, &results[i], report)
	}

	for _, rec := range agg.Drain() {
		report.Orphans++
		e.logOrphan(rec)
	}

	records := agg.Records()
	report.Records = len(records)

	e.logger.Info("annotation extraction finished",
		zap.Int("pages", report.Pages),
		zap.Int("annotations", report.Annotations),
		zap.Int("records", report.Records),
		zap.Int("orphans", report.Orphans),
		zap.String("strategy", string(e.opts.Strategy)),
		zap.String("issues", report.Issues.Summary()))

	return records, report, nil
}

// parsePage runs one page through the per-annotation pipeline and resolves
// its records against the page's declarations.
func (e *Engine) parsePage(page int, raws []RawAnnotation) pageResult {
	pc := NewPageContext(page)
	res := pageResult{context: pc, received: len(raws)}

	var records []Record
	for _, raw := range raws {
		if raw.Color != nil {
			pc.ObserveColor(raw.Color)
		}
		if raw.Contents == nil {
			res.issues = append(res.issues, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidAnnotation,
				"annotation has no text payload").WithPage(page).WithObject(raw.ObjectNum))
			continue
		}

		text := Normalize(e.decode(raw.Contents))
		if strings.ContainsRune(text, utf8.RuneError) {
			res.issues = append(res.issues, pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypeInvalidEncoding,
				"annotation text contains undecodable bytes", text).WithPage(page).WithObject(raw.ObjectNum))
		}
		if text == "" {
			res.other++
			continue
		}

		pc.Declare(text)

		kind := Classify(text)
		switch kind {
		case KindMain:
			res.main++
		case KindSupplemental:
			res.supp++
		default:
			res.other++
		}

		stmt := Tokenize(kind, text)
		if stmt == nil {
			continue
		}
		records = append(records, Parse(stmt, page, pc.Current())...)
	}

	res.records, res.orphans = e.resolver.Apply(records, pc)
	return res
}

// fold merges one page result into the aggregator in page order.
func (e *Engine) fold(agg *Aggregator, res *pageResult, report *Report) {
	report.Pages++
	report.Annotations += res.received
	report.Main += res.main
	report.Supplemental += res.supp
	report.Other += res.other
	for _, issue := range res.issues {
		report.Issues.Add(issue)
	}

	if e.opts.OrphanScope == OrphanScopeDocument {
		for _, token := range res.context.Declared() {
			for _, rec := range agg.Release(token) {
				domain := e.resolver.Domain(&rec, res.context)
				if domain == "" {
					agg.Hold(rec)
					continue
				}
				rec.AssignDomain(domain)
				agg.Merge(rec)
				report.Replayed++
				e.logger.Debug("orphan record resolved on later page",
					zap.String("id", rec.ID),
					zap.Int("declared_on", res.context.Page))
			}
		}
	}

	for _, rec := range res.records {
		agg.Merge(rec)
	}

	for _, rec := range res.orphans {
		if e.opts.OrphanScope == OrphanScopeDocument {
			agg.Hold(rec)
			continue
		}
		report.Orphans++
		e.logOrphan(rec)
	}
}

func (e *Engine) logOrphan(rec Record) {
	page := 0
	if len(rec.Pages) > 0 {
		page = rec.Pages[0].Page
	}
	e.logger.Debug("dropping record without domain",
		zap.Int("page", page),
		zap.String("variable", rec.Variable),
		zap.String("context", rec.DomainContext),
		zap.String("raw", rec.Raw))
}

// Normalize trims the text and turns each embedded line break into a single space
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", Space)
	text = strings.ReplaceAll(text, "\r", Space)
	text = strings.ReplaceAll(text, "\n", Space)
	return strings.TrimSpace(text)
}
