package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nahuelc/resumen/extractor"
	"github.com/nahuelc/resumen/extractor/common"
)

// ImportResult tracks the outcome of an import operation.
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior.
type ImportOptions struct {
	Force  bool   // reprocess statements that already exist
	Kind   string // override auto-detection
	Logger *logrus.Logger
}

func (o ImportOptions) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

// ImportFile parses a single PDF and stores its statement, transactions and
// warnings. Statements are deduplicated on (source, kind); --force replaces
// the stored copy.
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) (processed, skipped, failed int, errs []string) {
	log := opts.logger()
	fileName := filepath.Base(filePath)

	result, err := extractor.ProcessFile(filePath, opts.Kind, common.Options{Logger: log})
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}

	stmt := result.Statement
	exists, existingID, err := db.StatementExists(ctx, stmt.Source, stmt.Kind)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}

	if exists && !opts.Force {
		log.WithFields(logrus.Fields{"file": fileName, "kind": stmt.Kind}).Info("skip: already imported")
		return 0, 1, 0, nil
	}
	if exists {
		if err := db.DeleteStatement(ctx, existingID); err != nil {
			return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
		}
	}

	statementID, err := db.CreateStatement(ctx, stmt)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}

	if err := db.CreateTransactions(ctx, statementID, result.Transactions); err != nil {
		// Roll back by deleting the statement row.
		_ = db.DeleteStatement(ctx, statementID)
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}
	if err := db.CreateWarnings(ctx, statementID, result.Warnings); err != nil {
		_ = db.DeleteStatement(ctx, statementID)
		return 0, 0, 1, []string{fmt.Sprintf("%s: %v", fileName, err)}
	}

	log.WithFields(logrus.Fields{
		"file":         fileName,
		"kind":         stmt.Kind,
		"transactions": len(result.Transactions),
		"warnings":     len(result.Warnings),
	}).Info("imported")
	return 1, 0, 0, nil
}

// ImportDirectory imports every PDF in a directory.
func (db *DB) ImportDirectory(ctx context.Context, dirPath string, opts ImportOptions) (*ImportResult, error) {
	log := opts.logger()
	result := &ImportResult{}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dirPath, e.Name()))
		}
	}

	log.WithFields(logrus.Fields{"dir": dirPath, "files": len(pdfs)}).Info("scanning")

	for _, filePath := range pdfs {
		processed, skipped, failed, errs := db.ImportFile(ctx, filePath, opts)
		result.Processed += processed
		result.Skipped += skipped
		result.Failed += failed
		result.Errors = append(result.Errors, errs...)
	}

	return result, nil
}

// Import handles both file and directory imports.
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}

	result := &ImportResult{}
	result.Processed, result.Skipped, result.Failed, result.Errors = db.ImportFile(ctx, path, opts)
	return result, nil
}
