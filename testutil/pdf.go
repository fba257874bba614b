// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// BuildPDF writes a minimal single-page PDF with a correct xref table. Each
// line is placed 40 units below the previous one with Td, the way slide
// decks lay out text. An empty title leaves out the document info.
func BuildPDF(title string, lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 24 Tf 72 720 Td")
	for i, ln := range lines {
		if i > 0 {
			content.WriteString(" 0 -40 Td")
		}
		fmt.Fprintf(&content, " (%s) Tj", ln)
	}
	content.WriteString(" ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	if title != "" {
		objects = append(objects, fmt.Sprintf("<< /Title (%s) >>", title))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	info := ""
	if title != "" {
		info = fmt.Sprintf(" /Info %d 0 R", len(objects))
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, info, xref)
	return buf.Bytes()
}
