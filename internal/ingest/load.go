// Package ingest loads registry snapshot files and cleans them into
// snapshots the reconcile engine accepts: merged, deduplicated by key and
// with nulls filled for the columns that have defaults.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/regwatch/pkg/constants"
	"github.com/agentstation/regwatch/pkg/errors"
	"github.com/agentstation/regwatch/pkg/logging"
	"github.com/agentstation/regwatch/pkg/snapshot"
)

// Format is a snapshot file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// FormatOf returns the format for a file name by extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, ext)
	}
}

// Options configures how table cells become snapshot rows.
type Options struct {
	KeyField   string                        // Column holding the entity key
	FieldTypes map[string]snapshot.FieldType // Declared column types; undeclared columns are strings
	Name       string                        // Snapshot name; defaults to the file base name
}

func (o Options) keyField() string {
	if o.KeyField == "" {
		return constants.DefaultKeyField
	}
	return o.KeyField
}

// LoadFile reads one CSV or XLSX snapshot file.
func LoadFile(ctx context.Context, path string, opts Options) (*snapshot.Snapshot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()

	if opts.Name == "" {
		opts.Name = NameOf(path)
	}
	s, err := Load(f, format, path, opts)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug().
		Str("file", path).
		Int("rows", s.Len()).
		Int("columns", len(s.Columns())).
		Msg("Loaded snapshot file")
	return s, nil
}

// NameOf returns the snapshot name for path: its base name without the
// extension.
func NameOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// LoadFiles reads several files concurrently and merges them in argument
// order.
func LoadFiles(ctx context.Context, paths []string, opts Options) (*snapshot.Snapshot, error) {
	loaded := make([]*snapshot.Snapshot, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fileOpts := opts
			fileOpts.Name = ""
			s, err := LoadFile(gctx, path, fileOpts)
			if err != nil {
				return err
			}
			loaded[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	merged := Merge(loaded...)
	if opts.Name != "" {
		merged = merged.Renamed(opts.Name)
	}
	return merged, nil
}

// Load reads a snapshot table from r. file is used in error messages only.
func Load(r io.Reader, format Format, file string, opts Options) (*snapshot.Snapshot, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, errors.WrapParse(string(format), file, err)
	}
	return buildSnapshot(records, format, file, opts)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	return csvReader.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	return f.GetRows(sheets[0])
}

// buildSnapshot treats the first non-empty record as the header.
func buildSnapshot(records [][]string, format Format, file string, opts Options) (*snapshot.Snapshot, error) {
	headerAt := -1
	for i, rec := range records {
		if !isBlank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errors.NewParseError(string(format), file, "no header row found", nil)
	}

	headers := cleanHeaders(records[headerAt])
	keyField := opts.keyField()
	keyCol := -1
	for i, h := range headers {
		if h == keyField {
			keyCol = i
			break
		}
	}
	if keyCol < 0 {
		return nil, errors.NewSchemaError(opts.Name, keyField, "key column is missing")
	}

	rows := make([]snapshot.Row, 0, len(records)-headerAt-1)
	for i := headerAt + 1; i < len(records); i++ {
		rec := records[i]
		if isBlank(rec) {
			continue
		}
		line := i + 1

		fields := make(map[string]snapshot.Value, len(headers))
		for col, name := range headers {
			cell := ""
			if col < len(rec) {
				cell = strings.TrimSpace(rec[col])
			}
			v, err := cellValue(cell, opts.FieldTypes[name])
			if err != nil {
				pe := errors.NewParseError(string(format), file, err.Error(), err)
				pe.Line = line
				pe.Column = name
				return nil, pe
			}
			if col == keyCol {
				continue
			}
			fields[name] = v
		}

		key := ""
		if keyCol < len(rec) {
			key = strings.TrimSpace(rec[keyCol])
		}
		if key == "" {
			pe := errors.NewParseError(string(format), file, "empty key", nil)
			pe.Line = line
			pe.Column = keyField
			return nil, pe
		}
		rows = append(rows, snapshot.NewRow(key, fields))
	}

	columns := make([]string, 0, len(headers)-1)
	for i, h := range headers {
		if i != keyCol {
			columns = append(columns, h)
		}
	}
	return snapshot.New(rows, snapshot.WithColumns(columns...), snapshot.WithName(opts.Name)), nil
}

// cellValue converts a trimmed cell. Empty cells are null.
func cellValue(cell string, ft snapshot.FieldType) (snapshot.Value, error) {
	if cell == "" {
		return snapshot.Null(), nil
	}
	if ft != snapshot.FieldTypeNumber {
		return snapshot.String(cell), nil
	}
	f, err := snapshot.ParseNumber(cell)
	if err != nil {
		return snapshot.Null(), fmt.Errorf("%q is not a number", cell)
	}
	return snapshot.Number(f), nil
}

// cleanHeaders trims header names and suffixes repeats so every column is
// addressable.
func cleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)
	for i, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1
		headers[i] = name
	}
	return headers
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
