// Package corpus reads the knowledge base from its tabular CSV source
// and produces validated KnowledgeRecords ready for embedding.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aibroker/support-assistant/engine/domain"
)

// Required source columns. A missing category column is not a schema
// error; values default to domain.DefaultCategory.
var requiredColumns = []string{"question", "answer"}

// Loader reads knowledge records from a CSV file.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the given CSV path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Path returns the source file path.
func (l *Loader) Path() string { return l.path }

// Exists reports whether the source file is present.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Load reads and validates the corpus. Malformed rows are logged and
// skipped; an empty result is valid and left for the indexer to reject.
func (l *Loader) Load() ([]domain.KnowledgeRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, l.path)
		}
		return nil, fmt.Errorf("corpus: open %s: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file %s", domain.ErrSourceSchema, l.path)
		}
		return nil, fmt.Errorf("corpus: read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.KnowledgeRecord
	for row := 0; ; row++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.logger.Warn("corpus: skipping malformed row", "row", row, "err", err)
			continue
		}

		rec, err := domain.NewKnowledgeRecord(
			field(fields, cols.question),
			field(fields, cols.answer),
			field(fields, cols.category),
			row,
		)
		if err != nil {
			l.logger.Warn("corpus: skipping invalid row", "row", row, "err", err)
			continue
		}
		records = append(records, rec)
	}

	l.logger.Info("corpus loaded", "path", l.path, "records", len(records))
	return records, nil
}

// columnIndexes maps header names to field positions. category is -1
// when the column is absent.
type columnIndexes struct {
	question int
	answer   int
	category int
}

func resolveColumns(header []string) (columnIndexes, error) {
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return columnIndexes{}, fmt.Errorf("%w: missing columns %s",
			domain.ErrSourceSchema, strings.Join(missing, ", "))
	}

	cols := columnIndexes{
		question: idx["question"],
		answer:   idx["answer"],
		category: -1,
	}
	if i, ok := idx["category"]; ok {
		cols.category = i
	}
	return cols, nil
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
