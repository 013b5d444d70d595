// Package docextract extracts text from PDF delivery documents.
//
// Photographed documents go through the sharpness gate and travel to the
// reasoning service as images; PDF uploads have no focus to measure, so
// their text is extracted locally and submitted as text instead.
package docextract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction errors.
var (
	// ErrEmptyDocument is returned for a zero-length payload.
	ErrEmptyDocument = errors.New("docextract: empty document payload")

	// ErrNotPDF is returned when the payload is not a PDF.
	ErrNotPDF = errors.New("docextract: payload is not a PDF")

	// ErrNoTextContent is returned when no page yields extractable text,
	// e.g. a scanned-image PDF.
	ErrNoTextContent = errors.New("docextract: no text content found in PDF")
)

// pdfMagic is the required header of every PDF file.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the payload looks like a PDF document.
// This is a pure function with no side effects.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Result is the outcome of a PDF text extraction.
type Result struct {
	// Text is the concatenated text of all extracted pages.
	Text string

	// TotalPages is the page count of the document.
	TotalPages int

	// ExtractedPages is the number of pages that yielded text.
	ExtractedPages int
}

// ExtractorConfig bounds the extraction work.
type ExtractorConfig struct {
	// MaxPages limits extraction to the first N pages (0 = all pages).
	// Delivery documents are short; a many-hundred-page upload is
	// almost certainly a mistake and not worth unbounded work.
	MaxPages int

	// PageSeparator is inserted between page texts.
	PageSeparator string
}

// DefaultExtractorConfig returns sensible defaults for delivery documents.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxPages:      20,
		PageSeparator: "\n\n",
	}
}

// Extractor extracts text from in-memory PDF payloads.
type Extractor struct {
	config ExtractorConfig
}

// NewExtractor creates an Extractor with the given configuration.
func NewExtractor(config ExtractorConfig) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	return &Extractor{config: config}
}

// ExtractText pulls the plain text out of a PDF payload. Pages that fail
// to parse are skipped; extraction only errors when the whole document is
// unreadable or yields no text at all.
func (e *Extractor) ExtractText(data []byte) (result *Result, err error) {
	// The parser panics on some malformed files; uploads are untrusted,
	// so convert that into a normal error.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("docextract: failed to parse PDF: %v", r)
		}
	}()

	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docextract: failed to parse PDF: %w", err)
	}

	totalPages := reader.NumPage()
	limit := totalPages
	if e.config.MaxPages > 0 && limit > e.config.MaxPages {
		limit = e.config.MaxPages
	}

	var pages []string
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, ErrNoTextContent
	}

	return &Result{
		Text:           strings.Join(pages, e.config.PageSeparator),
		TotalPages:     totalPages,
		ExtractedPages: len(pages),
	}, nil
}
