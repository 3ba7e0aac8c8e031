// Package pdf decodes embedded PDF payloads and inspects them for the page
// count and the text content that feeds metadata extraction. Rendering is out
// of scope; the reading UI owns that.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/vincent-petithory/dataurl"
)

// ErrNotPDF means the value was not a validly tagged embedded PDF payload.
// Consumers treat such a value as "no PDF attached".
var ErrNotPDF = errors.New("not an embedded PDF payload")

// MaxTextBytes bounds the extracted text sent to metadata extraction.
const MaxTextBytes = 16 * 1024

// Info describes an inspected PDF.
type Info struct {
	Pages int
	Text  string
}

// ParseDataURI validates and decodes an application/pdf data URI.
func ParseDataURI(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrNotPDF
	}
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	if du.ContentType() != "application/pdf" {
		return nil, fmt.Errorf("%w: media type %s", ErrNotPDF, du.ContentType())
	}
	return du.Data, nil
}

// IsPDFDataURI reports whether s is a validly tagged embedded PDF payload.
func IsPDFDataURI(s string) bool {
	_, err := ParseDataURI(s)
	return err == nil
}

// EncodeDataURI wraps raw PDF bytes as a data URI for embedding in a record.
func EncodeDataURI(data []byte) string {
	return dataurl.New(data, "application/pdf").String()
}

// Inspect reads a PDF and returns its page count and up to MaxTextBytes of
// plain text. Text extraction failures on individual pages are skipped; a
// scanned PDF legitimately yields no text.
func Inspect(data []byte) (Info, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("read pdf: %w", err)
	}

	info := Info{Pages: reader.NumPage()}

	var sb strings.Builder
	for i := 1; i <= info.Pages && sb.Len() < MaxTextBytes; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	text := sb.String()
	if len(text) > MaxTextBytes {
		text = text[:MaxTextBytes]
	}
	info.Text = text
	return info, nil
}
