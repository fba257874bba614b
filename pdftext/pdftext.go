// Package pdftext decodes PDF data URLs and extracts per-page plain text.
package pdftext

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Desarso/deckchat/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxPages = 20
	DefaultMaxBytes = 25 << 20
)

var (
	ErrInvalidDataURL = errors.New("invalid PDF data URL")
	ErrTooLarge       = errors.New("PDF exceeds size limit")
)

var dataURLPattern = regexp.MustCompile(`(?s)^data:application/pdf;?base64,(.*)$`)

// Error describes a failed step of the extraction.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdftext %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Document is the text content of the first pages of a PDF.
type Document struct {
	Pages     []string
	Title     string // document info Title, may be empty
	PageCount int    // total pages in the file
}

// Text joins the extracted pages with newlines and trims the result.
func (d Document) Text() string {
	return strings.TrimSpace(strings.Join(d.Pages, "\n"))
}

// Extractor reads at most MaxPages pages from PDFs of at most MaxBytes.
type Extractor struct {
	MaxPages int
	MaxBytes int64
}

func New() Extractor {
	return Extractor{MaxPages: DefaultMaxPages, MaxBytes: DefaultMaxBytes}
}

// DecodeDataURL returns the bytes of a "data:application/pdf;base64,..." URL.
func (e Extractor) DecodeDataURL(dataURL string) ([]byte, error) {
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return nil, &Error{Op: "decode", Err: ErrInvalidDataURL}
	}
	payload := match[1]

	if e.MaxBytes > 0 && int64(len(payload))/4*3 > e.MaxBytes+3 {
		return nil, &Error{Op: "decode", Err: ErrTooLarge}
	}
	data, err := models.DecodeBase64(payload)
	if err != nil {
		return nil, &Error{Op: "decode", Err: fmt.Errorf("%w: %v", ErrInvalidDataURL, err)}
	}
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return nil, &Error{Op: "decode", Err: ErrTooLarge}
	}
	return data, nil
}

// ExtractDataURL decodes a PDF data URL and extracts its text.
func (e Extractor) ExtractDataURL(dataURL string) (Document, error) {
	data, err := e.DecodeDataURL(dataURL)
	if err != nil {
		return Document{}, err
	}
	return e.Extract(data)
}

// Extract parses PDF bytes. Pages whose text cannot be extracted are skipped.
func (e Extractor) Extract(data []byte) (doc Document, err error) {
	if e.MaxBytes > 0 && int64(len(data)) > e.MaxBytes {
		return Document{}, &Error{Op: "parse", Err: ErrTooLarge}
	}

	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = &Error{Op: "parse", Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	src, err := openPDF(data)
	if err != nil {
		return Document{}, &Error{Op: "parse", Err: err}
	}

	total := src.NumPage()
	limit := total
	if e.MaxPages > 0 && limit > e.MaxPages {
		limit = e.MaxPages
	}

	doc = Document{Title: strings.TrimSpace(src.Title()), PageCount: total}
	for i := 1; i <= limit; i++ {
		text, pageErr := pageText(src, i)
		if pageErr != nil {
			log.Debug().Err(pageErr).Int("page", i).Msg("skipping unreadable page")
			continue
		}
		doc.Pages = append(doc.Pages, text)
	}

	log.Debug().Int("pages", total).Int("read", len(doc.Pages)).Msg("extracted pdf text")
	return doc, nil
}

// pageText isolates panics raised while decoding a single page.
func pageText(src pageSource, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", i, r)
		}
	}()
	return src.PageText(i)
}
