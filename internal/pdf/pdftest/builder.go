// Package pdftest writes small annotated PDF files for tests.
package pdftest

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Annotation is one free-text annotation of a generated page
type Annotation struct {
	// Color is written as the /C array; nil omits the entry
	Color []float64
	// Text is written as a literal string; ignored when Raw is set
	Text string
	// Raw is written as a hex string, for non-ASCII payloads
	Raw []byte
	// NoContents omits the /Contents entry
	NoContents bool
}

// Free builds an annotation with a literal text payload
func Free(color []float64, text string) Annotation {
	return Annotation{Color: color, Text: text}
}

// Build returns the bytes of a PDF whose i-th page carries pages[i]
func Build(pages [][]Annotation) []byte {
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}

	kids := make([]string, 0, len(pages))
	for _, annots := range pages {
		pageNum := len(objects) + 1
		objects = append(objects, "")

		refs := make([]string, 0, len(annots))
		for _, a := range annots {
			refs = append(refs, fmt.Sprintf("%d 0 R", len(objects)+1))
			objects = append(objects, annotationDict(a, pageNum))
		}

		objects[pageNum-1] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Annots [%s] >>",
			strings.Join(refs, " "))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func annotationDict(a Annotation, pageNum int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<< /Type /Annot /Subtype /FreeText /Rect [10 10 200 30] /DA (/Helv 10 Tf) /P %d 0 R", pageNum)
	if a.Color != nil {
		parts := make([]string, 0, len(a.Color))
		for _, c := range a.Color {
			parts = append(parts, fmt.Sprintf("%g", c))
		}
		fmt.Fprintf(&b, " /C [%s]", strings.Join(parts, " "))
	}
	switch {
	case a.NoContents:
	case a.Raw != nil:
		fmt.Fprintf(&b, " /Contents <%s>", strings.ToUpper(hex.EncodeToString(a.Raw)))
	default:
		fmt.Fprintf(&b, " /Contents (%s)", escape(a.Text))
	}
	b.WriteString(" >>")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, "\r", `\r`, "\n", `\n`)
	return r.Replace(s)
}

// WriteFile writes a generated PDF into a fresh temporary directory and
// returns its path.
func WriteFile(t testing.TB, name string, pages [][]Annotation) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(pages), 0o600); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

// SamplePages is a three page aCRF: a cover page, an Adverse Events and Vital
// Signs page, and a page repeating AESTDTC.
func SamplePages() [][]Annotation {
	red := []float64{1, 0, 0}
	blue := []float64{0, 0, 1}
	return [][]Annotation{
		{Free(red, "AETERM")},
		{
			Free(red, "AE (Adverse Events)"),
			Free(red, "AESTDTC"),
			Free(blue, "VS (Vital Signs)"),
			Free(blue, "VSORRES / VSORRESU when VSTESTCD = TEMP"),
			Free(blue, "VSPOS in SUPPVS"),
		},
		{
			Free(red, "AE (Adverse Events)"),
			Free(red, "AESTDTC"),
			Free(red, "AESER = Y"),
		},
	}
}
