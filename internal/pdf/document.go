package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/acrf-annotations/internal/annotation"
	"github.com/a3tai/acrf-annotations/internal/pdf/errors"
)

// Document gives page-ordered access to the annotations of a PDF file read
// with pdfcpu. It is not safe for concurrent use.
type Document struct {
	path string
	ctx  *model.Context
}

// OpenDocument reads a PDF file. Failures to parse the document structure
// are returned as *errors.PDFError of type ErrorTypeInvalidStructure.
func OpenDocument(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeResourceNotFound, err).WithFile(path)
	}
	defer file.Close()

	doc, err := ReadDocument(file)
	if err != nil {
		if pdfErr, ok := err.(*errors.PDFError); ok {
			return nil, pdfErr.WithFile(path)
		}
		return nil, err
	}
	doc.path = path
	return doc, nil
}

// ReadDocument reads a PDF document from a seekable reader
func ReadDocument(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidStructure, err).
			WithContext("failed to read PDF context")
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidStructure, err).
			WithContext("failed to resolve page tree")
	}

	return &Document{ctx: ctx}, nil
}

// Path returns the file the document was opened from
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// PageAnnotations returns the annotations of a 1-based page in the order of
// its /Annots array. Annotations whose dictionary cannot be read are returned
// without colour or contents so the caller can report them.
func (d *Document) PageAnnotations(page int) ([]annotation.RawAnnotation, error) {
	if page < 1 || page > d.ctx.PageCount {
		return nil, errors.NewPDFError(errors.ErrorTypeMalformedPage,
			fmt.Sprintf("page %d out of range (document has %d pages)", page, d.ctx.PageCount))
	}

	pageDict, _, _, err := d.ctx.PageDict(page, false)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeInvalidStructure, err).WithPage(page).WithFile(d.path)
	}
	if pageDict == nil {
		return nil, errors.NewPDFError(errors.ErrorTypeInvalidStructure, "page dictionary missing").
			WithPage(page).WithFile(d.path)
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found || annotsObj == nil {
		return nil, nil
	}

	annots, err := d.ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeMalformedObject, err).WithPage(page).WithFile(d.path)
	}

	raws := make([]annotation.RawAnnotation, 0, len(annots))
	for _, obj := range annots {
		raws = append(raws, d.readAnnotation(obj))
	}
	return raws, nil
}

// readAnnotation extracts the /C colour vector and the raw /Contents bytes
func (d *Document) readAnnotation(obj types.Object) annotation.RawAnnotation {
	var raw annotation.RawAnnotation
	if ref, ok := obj.(types.IndirectRef); ok {
		raw.ObjectNum = ref.ObjectNumber.Value()
	}

	dict, err := d.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return raw
	}

	if colorObj, found := dict.Find("C"); found && colorObj != nil {
		raw.Color = d.readColor(colorObj)
	}

	if contentsObj, found := dict.Find("Contents"); found && contentsObj != nil {
		raw.Contents = d.readBytes(contentsObj)
	}
	return raw
}

func (d *Document) readColor(obj types.Object) []float64 {
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	color := make([]float64, 0, len(arr))
	for _, component := range arr {
		f, err := d.ctx.DereferenceNumber(component)
		if err != nil {
			return nil
		}
		color = append(color, f)
	}
	return color
}

// readBytes returns the undecoded bytes of a string or hex string object
func (d *Document) readBytes(obj types.Object) []byte {
	o, err := d.ctx.Dereference(obj)
	if err != nil || o == nil {
		return nil
	}

	switch s := o.(type) {
	case types.StringLiteral:
		b, err := types.Unescape(s.Value())
		if err != nil {
			return nil
		}
		if b == nil {
			b = []byte{}
		}
		return b
	case types.HexLiteral:
		b, err := s.Bytes()
		if err != nil {
			return nil
		}
		if b == nil {
			b = []byte{}
		}
		return b
	default:
		return nil
	}
}
