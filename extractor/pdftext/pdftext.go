// Package pdftext acquires per-page plain text from statement PDFs. The
// parsing engine only ever sees the page strings this package produces.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// Pages extracts one text block per page, lines joined with '\n'.
func Pages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return PagesFromReader(f)
}

// PagesFromReader extracts page texts from an in-memory or seekable PDF.
func PagesFromReader(r io.Reader) ([]string, error) {
	rAt, size, err := readerAt(r)
	if err != nil {
		return nil, err
	}

	doc, err := pdf.NewReader(rAt, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages := make([]string, 0, doc.NumPage())
	for no := 1; no <= doc.NumPage(); no++ {
		rows, err := doc.Page(no).GetTextByRow()
		if err != nil {
			// A page that cannot be decoded is extraction noise, not
			// a reason to drop the whole document.
			pages = append(pages, "")
			continue
		}

		var b strings.Builder
		for i, row := range rows {
			if i > 0 {
				b.WriteByte('\n')
			}
			for j, text := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text.S)
			}
		}
		pages = append(pages, b.String())
	}
	return pages, nil
}

func readerAt(r io.Reader) (io.ReaderAt, int64, error) {
	if rAt, ok := r.(io.ReaderAt); ok {
		if seeker, ok := r.(io.Seeker); ok {
			cur, _ := seeker.Seek(0, io.SeekCurrent)
			end, err := seeker.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, 0, err
			}
			if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
				return nil, 0, err
			}
			return rAt, end, nil
		}
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, 0, err
	}
	b := buf.Bytes()
	return bytes.NewReader(b), int64(len(b)), nil
}
