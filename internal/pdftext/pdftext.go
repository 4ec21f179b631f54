// Package pdftext turns uploaded report files into ordered pages of plain
// text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/MrJamesThe3rd/muniledger/internal/encoding"
)

// ErrNoText is returned when a document has no extractable text layer.
var ErrNoText = errors.New("document has no text layer")

// pageBreak separates pages in plain-text dumps.
const pageBreak = "\f"

// Page is the text of one page, numbered from 1.
type Page struct {
	Number int
	Text   string
}

// FromPDF extracts the text layer of every page, row by row. Pages whose
// rows cannot be read fall back to the plain text stream of the page.
func FromPDF(data []byte) (pages []Page, err error) {
	// The PDF library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("reading pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("opening pdf: %w", ErrNoText)
	}

	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, ok := pageRows(p)
		if !ok {
			text = pagePlain(p)
		}

		pages = append(pages, Page{Number: i, Text: text})
	}

	if !hasText(pages) {
		return nil, ErrNoText
	}

	return pages, nil
}

func pageRows(p pdf.Page) (string, bool) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return "", false
	}

	lines := make([]string, 0, len(rows))

	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, w := range row.Content {
			words = append(words, w.S)
		}

		if l := strings.TrimSpace(strings.Join(words, " ")); l != "" {
			lines = append(lines, l)
		}
	}

	return strings.Join(lines, "\n"), len(lines) > 0
}

func pagePlain(p pdf.Page) string {
	fonts := make(map[string]*pdf.Font)

	for _, name := range p.Fonts() {
		f := p.Font(name)
		fonts[name] = &f
	}

	text, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(text)
}

// FromText reads a plain-text dump, with pages separated by form feeds.
// The input encoding is detected.
func FromText(r io.Reader) ([]Page, error) {
	text, err := encoding.ReadString(r)
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	var pages []Page

	for i, chunk := range strings.Split(text, pageBreak) {
		pages = append(pages, Page{Number: i + 1, Text: strings.TrimSpace(chunk)})
	}

	if !hasText(pages) {
		return nil, ErrNoText
	}

	return pages, nil
}

// Join concatenates the pages in order.
func Join(pages []Page) string {
	texts := make([]string, 0, len(pages))
	for _, p := range pages {
		texts = append(texts, p.Text)
	}

	return strings.Join(texts, "\n")
}

func hasText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}

	return false
}
