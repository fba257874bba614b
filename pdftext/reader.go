package pdftext

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageSource is the subset of a PDF reader the extractor needs. Pages are
// numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
	Title() string
}

var openPDF = func(data []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return ledongthucSource{r: r}, nil
}

type ledongthucSource struct {
	r *pdf.Reader
}

func (s ledongthucSource) NumPage() int {
	return s.r.NumPage()
}

func (s ledongthucSource) PageText(i int) (string, error) {
	page := s.r.Page(i)
	if page.V.IsNull() {
		return "", errors.New("missing page object")
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	// one line per text row, top to bottom
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for _, t := range row.Content {
			sb.WriteString(t.S)
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n"), nil
}

func (s ledongthucSource) Title() string {
	return s.r.Trailer().Key("Info").Key("Title").Text()
}
