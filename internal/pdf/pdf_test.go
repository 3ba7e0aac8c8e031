package pdf

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF assembles a one-page PDF with a valid xref table. Offsets are
// computed from the buffer so the document stays well-formed.
func minimalPDF() []byte {
	content := "BT /F1 12 Tf 72 720 Td (Hello) Tj ET\n"
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", len(content), content),
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	t.Run("valid pdf payload", func(t *testing.T) {
		// "%PDF-1.4\n%%EOF"
		data, err := ParseDataURI("data:application/pdf;base64,JVBERi0xLjQKJSVFT0Y=")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4\n%%EOF"), data)
	})

	t.Run("wrong media type is not a PDF", func(t *testing.T) {
		_, err := ParseDataURI("data:image/png;base64,AAAA")
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("garbage is not a PDF", func(t *testing.T) {
		_, err := ParseDataURI("definitely not a data uri")
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("empty is not a PDF", func(t *testing.T) {
		_, err := ParseDataURI("")
		assert.ErrorIs(t, err, ErrNotPDF)
	})
}

func TestInspect(t *testing.T) {
	t.Run("counts pages", func(t *testing.T) {
		info, err := Inspect(minimalPDF())
		require.NoError(t, err)
		assert.Equal(t, 1, info.Pages)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Inspect([]byte("not a pdf at all"))
		assert.Error(t, err)
	})

	t.Run("rejects truncated document", func(t *testing.T) {
		doc := minimalPDF()
		_, err := Inspect(doc[:len(doc)/2])
		assert.Error(t, err)
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := []byte("%PDF-1.7 fake body")
	uri := EncodeDataURI(raw)
	assert.True(t, IsPDFDataURI(uri))

	decoded, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
