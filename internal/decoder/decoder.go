// Package decoder turns raw annotation text payloads into UTF-8 strings.
//
// Annotation contents in annotated CRFs are either PDF text strings marked by
// a UTF-16BE byte order mark or legacy double-byte strings, which are read as
// GB18030. GB18030 is a superset of ASCII, so plain English annotations decode
// unchanged.
package decoder

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

var (
	utf16BOM = []byte{0xFE, 0xFF}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// Decode converts a raw payload to NFC-normalized UTF-8. Bytes that cannot be
// decoded become U+FFFD.
func Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	switch {
	case bytes.HasPrefix(raw, utf16BOM):
		text = decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), raw)
	case bytes.HasPrefix(raw, utf8BOM):
		text = strings.ToValidUTF8(string(raw[len(utf8BOM):]), "�")
	default:
		text = decodeWith(simplifiedchinese.GB18030, raw)
	}
	return norm.NFC.String(text)
}

func decodeWith(enc encoding.Encoding, raw []byte) string {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(out)
}

// Encode converts text to the GB18030 payload form. It is the inverse of
// Decode for payloads without a byte order mark.
func Encode(text string) ([]byte, error) {
	return simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(text))
}

// EncodeUTF16 converts text to a PDF UTF-16BE text string with its byte order mark
func EncodeUTF16(text string) ([]byte, error) {
	return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
}
