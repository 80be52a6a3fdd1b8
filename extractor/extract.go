// Package extractor selects the statement variant for a document and runs
// the matching parser over its page texts.
package extractor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nahuelc/resumen/extractor/common"
	"github.com/nahuelc/resumen/extractor/cuenta"
	"github.com/nahuelc/resumen/extractor/mastercard"
	"github.com/nahuelc/resumen/extractor/pdftext"
	"github.com/nahuelc/resumen/extractor/visa"
)

// DetectKind sniffs the statement variant from the concatenated page text.
// The checks are simple keyword presence tests; the default falls back to the
// primary credit-card format.
func DetectKind(text string) string {
	up := strings.ToUpper(text)
	if strings.Contains(up, "CAJA DE AHORRO") && strings.Contains(up, "DETALLE DE OPERACIONES") {
		return common.KindCuenta
	}
	if strings.Contains(up, "VISA") {
		return common.KindVisa
	}
	return common.KindMastercard
}

// NewParser constructs the variant parser for kind. Unknown kinds get the
// primary credit-card parser, mirroring DetectKind's fallback.
func NewParser(kind, path string, pages []string, opts common.Options) common.StatementParser {
	switch kind {
	case common.KindCuenta:
		return cuenta.New(path, pages, opts)
	case common.KindVisa:
		return visa.New(path, pages, opts)
	default:
		return mastercard.New(path, pages, opts)
	}
}

// ProcessFile parses one document. kind may be "", "auto" or a concrete
// variant tag; empty/auto triggers detection.
func ProcessFile(path, kind string, opts common.Options) (*common.Result, error) {
	pages, err := pdftext.Pages(path)
	if err != nil {
		return nil, err
	}
	return processPages(path, pages, kind, opts)
}

// ProcessReader parses a document already held in memory; name supplies the
// source identifier used in the output rows.
func ProcessReader(r io.Reader, name, kind string, opts common.Options) (*common.Result, error) {
	pages, err := pdftext.PagesFromReader(r)
	if err != nil {
		return nil, err
	}
	return processPages(name, pages, kind, opts)
}

func processPages(path string, pages []string, kind string, opts common.Options) (*common.Result, error) {
	if kind == "" || kind == "auto" {
		kind = DetectKind(strings.Join(pages, "\n"))
	}
	p := NewParser(kind, path, pages, opts)
	if err := p.Parse(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return p.Result(), nil
}

// ProcessPath handles a single document or a directory of documents. In
// batch mode a document that fails outright is logged and skipped; the rest
// of the batch still completes.
func ProcessPath(path, kind string, opts common.Options) ([]*common.Result, error) {
	opts = opts.Normalize()

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		res, err := ProcessFile(path, kind, opts)
		if err != nil {
			return nil, err
		}
		return []*common.Result{res}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.pdf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var results []*common.Result
	for _, file := range matches {
		res, err := ProcessFile(file, kind, opts)
		if err != nil {
			opts.Logger.WithError(err).WithField("file", file).Error("skipping document")
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
