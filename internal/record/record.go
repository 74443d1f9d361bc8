// Package record turns delimited-text source files into header-keyed rows.
//
// Every loader (evaluation, catalog) reads through this package so the
// quoting convention, Unicode normalization, and malformed-row policy are
// identical across sources.
package record

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/garyellow/harvard-gems/internal/logger"
)

// Row maps a header column name to a trimmed field value.
type Row map[string]string

// Get returns the value for an exact column name, or "" when absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Table is a parsed source file.
type Table struct {
	Header  []string
	Rows    []Row
	Skipped int // malformed rows that were logged and dropped
}

// Column resolves the first header whose lower-cased name contains any of the
// given fragments. Fragments are tried in order, so put the most specific
// first. Returns "" when no header matches.
func (t *Table) Column(fragments ...string) string {
	return ResolveColumn(t.Header, fragments...)
}

// ResolveColumn performs case-insensitive substring header matching.
func ResolveColumn(header []string, fragments ...string) string {
	for _, frag := range fragments {
		frag = strings.ToLower(frag)
		for _, h := range header {
			if strings.Contains(strings.ToLower(h), frag) {
				return h
			}
		}
	}
	return ""
}

// ParseLine splits one line of delimited text into fields.
// A quoted field may contain the delimiter; a doubled quote inside a quoted
// field is a literal quote. Fields are NFKC-normalized and trimmed.
func ParseLine(line string) ([]string, error) {
	r := newReader(strings.NewReader(line))
	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cleanFields(fields), nil
}

// ParseRow zips a line's fields with the header.
// Columns missing from a short row map to "".
func ParseRow(header []string, line string) (Row, error) {
	fields, err := ParseLine(line)
	if err != nil {
		return nil, err
	}
	return zip(header, fields), nil
}

// Parse reads a whole delimited-text stream. The first non-empty line is the
// header. Malformed rows are logged at Warn and skipped; only a missing or
// unreadable header is returned as an error.
func Parse(src io.Reader, source string, log *logger.Logger) (*Table, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithModule("record").WithField("source", source)

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	table := &Table{}
	lineNo := 0
	var pending strings.Builder

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		// A quoted field may span lines; accumulate until it closes.
		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		if inQuotedField(pending.String()) {
			continue
		}
		logical := pending.String()
		pending.Reset()

		if strings.TrimSpace(logical) == "" {
			continue
		}

		if table.Header == nil {
			header, err := ParseLine(logical)
			if err != nil {
				return nil, fmt.Errorf("parse header: %w", err)
			}
			table.Header = header
			continue
		}

		row, err := ParseRow(table.Header, logical)
		if err != nil {
			table.Skipped++
			log.WithError(err).WithField("line", lineNo).Warn("Skipping malformed row")
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if pending.Len() > 0 {
		table.Skipped++
		log.WithField("line", lineNo).Warn("Skipping row with unterminated quote")
	}
	if table.Header == nil {
		return nil, fmt.Errorf("%s: missing header row", source)
	}

	log.WithFields(map[string]any{
		"rows":    len(table.Rows),
		"skipped": table.Skipped,
	}).Debug("Parsed source")
	return table, nil
}

// ParseFile opens and parses a file. A missing file returns an error
// satisfying errors.Is(err, fs.ErrNotExist) so callers can degrade to empty.
func ParseFile(path string, log *logger.Logger) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // Path comes from configuration
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(f, path, log)
}

func newReader(src io.Reader) *csv.Reader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

// inQuotedField reports whether text ends inside a quoted field. Only a quote
// opening a field starts one; a stray quote inside an unquoted field is
// literal here and left for the reader to reject as a single bad row.
func inQuotedField(text string) bool {
	quoted, fieldStart := false, true
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quoted:
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					i++
					continue
				}
				quoted = false
			}
		case c == ',' || c == '\n':
			fieldStart = true
		case fieldStart && (c == ' ' || c == '\t'):
		case fieldStart && c == '"':
			quoted, fieldStart = true, false
		default:
			fieldStart = false
		}
	}
	return quoted
}

func cleanFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(norm.NFKC.String(f))
	}
	return out
}

func zip(header, fields []string) Row {
	row := make(Row, len(header))
	for i, h := range header {
		if i < len(fields) {
			row[h] = fields[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
