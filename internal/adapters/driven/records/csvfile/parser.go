// Package csvfile decodes events, guests and generic rows from CSV files.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

var _ driven.RecordSource = (*Parser)(nil)

// Parser reads CSV files with a header row.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Events parses an events file. The header must name event_api_id.
func (p *Parser) Events(ctx context.Context, path string) (*domain.ParseResult[domain.EventRecord], error) {
	return parseTyped(ctx, path, []string{domain.KeyEventAPIID}, func(r *domain.EventRecord, source string, line int) {
		r.Source, r.Line = source, line
	})
}

// Guests parses a guests file. The header must name event_api_id and guest_api_id.
func (p *Parser) Guests(ctx context.Context, path string) (*domain.ParseResult[domain.GuestRecord], error) {
	return parseTyped(ctx, path, []string{domain.KeyEventAPIID, "guest_api_id"}, func(r *domain.GuestRecord, source string, line int) {
		r.Source, r.Line = source, line
	})
}

// Rows parses any CSV file into header-keyed rows.
func (p *Parser) Rows(ctx context.Context, path string) (*domain.ParseResult[domain.Row], error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd, header, err := readHeader(f, path)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return &domain.ParseResult[domain.Row]{}, nil
	}

	result := &domain.ParseResult[domain.Row]{}
	err = eachRecord(ctx, rd, path, func(fields []string, line int) *domain.RowDiagnostic {
		values := make(map[string]string, len(header))
		for i, name := range header {
			values[name] = cell(fields, i)
		}
		result.Records = append(result.Records, domain.Row{
			Columns: header,
			Values:  values,
			Source:  path,
			Line:    line,
		})
		return nil
	}, func(d domain.RowDiagnostic) { result.Diagnostics = append(result.Diagnostics, d) })
	if err != nil {
		return nil, err
	}

	logger.Debug("csvfile: %s: %d rows, %d diagnostics", path, len(result.Records), len(result.Diagnostics))
	return result, nil
}

// parseTyped decodes rows into T by matching header names to csv struct tags.
// Every column in required must be present in the header and non-blank in each row.
func parseTyped[T any](ctx context.Context, path string, required []string, stamp func(*T, string, int)) (*domain.ParseResult[T], error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd, header, err := readHeader(f, path)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return &domain.ParseResult[T]{}, nil
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s: header has no %s column", domain.ErrInvalidInput, path, name)
		}
	}

	binding := bindFields(reflect.TypeFor[T](), columns)

	result := &domain.ParseResult[T]{}
	err = eachRecord(ctx, rd, path, func(fields []string, line int) *domain.RowDiagnostic {
		for _, name := range required {
			if cell(fields, columns[name]) == "" {
				return &domain.RowDiagnostic{Source: path, Line: line, Message: "blank " + name}
			}
		}

		var rec T
		v := reflect.ValueOf(&rec).Elem()
		for fieldIndex, col := range binding {
			v.Field(fieldIndex).SetString(cell(fields, col))
		}
		stamp(&rec, path, line)
		result.Records = append(result.Records, rec)
		return nil
	}, func(d domain.RowDiagnostic) { result.Diagnostics = append(result.Diagnostics, d) })
	if err != nil {
		return nil, err
	}

	logger.Debug("csvfile: %s: %d records, %d diagnostics", path, len(result.Records), len(result.Diagnostics))
	return result, nil
}

// bindFields maps struct field index to header column index for every
// string field whose csv tag names a header column.
func bindFields(t reflect.Type, columns map[string]int) map[int]int {
	binding := make(map[int]int)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("csv")
		if tag == "" || tag == "-" || field.Type.Kind() != reflect.String {
			continue
		}
		if col, ok := columns[tag]; ok {
			binding[i] = col
		}
	}
	return binding
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return f, nil
}

// readHeader reads and trims the header row. A file with no rows at all
// returns a nil header and no error.
func readHeader(r io.Reader, path string) (*csv.Reader, []string, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = 0

	header, err := rd.Read()
	if errors.Is(err, io.EOF) {
		return rd, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: reading header: %w", domain.ErrInvalidInput, path, err)
	}

	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = strings.TrimSpace(name)
	}
	return rd, header, nil
}

// eachRecord calls decode for every non-blank data row. Rows that fail to
// parse or decode are passed to report. Line numbers are the 0-based index
// of the row among data rows plus 2.
func eachRecord(
	ctx context.Context,
	rd *csv.Reader,
	path string,
	decode func(fields []string, line int) *domain.RowDiagnostic,
	report func(domain.RowDiagnostic),
) error {
	index := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, path, err)
			}
			report(domain.RowDiagnostic{Source: path, Line: index + 2, Message: perr.Err.Error()})
			index++
			continue
		}

		if blank(fields) {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if d := decode(fields, index+2); d != nil {
			report(*d)
		}
		index++
	}
}

func cell(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
