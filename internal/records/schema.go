package records

import (
	"fmt"
	"leadsync/internal/apperrors"
	"sort"
	"strings"
)

// Column declares one logical field. Declaration order is the default column
// order: field i lives in column i unless the layout overrides it.
type Column struct {
	Field    string
	Required bool
}

// Schema maps logical field names to column positions of one table. The first
// declared column is the identity column.
type Schema struct {
	name     string
	sheet    string
	version  int
	fields   []string
	required []string
	index    map[string]int
	width    int
}

func NewSchema(name string, version int, columns ...Column) *Schema {
	s := &Schema{
		name:    name,
		sheet:   name,
		version: version,
		fields:  make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		s.fields = append(s.fields, c.Field)
		s.index[c.Field] = i
		if c.Required || i == 0 {
			s.required = append(s.required, c.Field)
		}
	}
	s.width = len(columns)
	return s
}

func (s *Schema) Name() string     { return s.name }
func (s *Schema) Sheet() string    { return s.sheet }
func (s *Schema) Version() int     { return s.version }
func (s *Schema) Width() int       { return s.width }
func (s *Schema) KeyField() string { return s.fields[0] }

func (s *Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

func (s *Schema) Index(field string) (int, bool) {
	idx, ok := s.index[field]
	return idx, ok
}

// WithLayout returns a copy bound to sheet with the given field -> column
// overrides applied. Moving a column is a configuration change, not a code change.
func (s *Schema) WithLayout(sheet string, overrides map[string]int) (*Schema, error) {
	out := &Schema{
		name:     s.name,
		sheet:    s.sheet,
		version:  s.version,
		fields:   s.Fields(),
		required: append([]string(nil), s.required...),
		index:    make(map[string]int, len(s.index)),
	}
	if strings.TrimSpace(sheet) != "" {
		out.sheet = strings.TrimSpace(sheet)
	}
	for f, i := range s.index {
		out.index[f] = i
	}
	for field, idx := range overrides {
		if _, ok := out.index[field]; !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", apperrors.ErrInvalidInput, s.name, field)
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s.%s column must not be negative", apperrors.ErrInvalidInput, s.name, field)
		}
		out.index[field] = idx
	}

	taken := make(map[int]string, len(out.index))
	fields := out.Fields()
	sort.Strings(fields)
	for _, f := range fields {
		idx := out.index[f]
		if other, ok := taken[idx]; ok {
			return nil, fmt.Errorf("%w: %s fields %q and %q share column %d", apperrors.ErrInvalidInput, s.name, other, f, idx)
		}
		taken[idx] = f
		if idx+1 > out.width {
			out.width = idx + 1
		}
	}
	return out, nil
}

func (s *Schema) cell(row []string, field string) string {
	idx := s.index[field]
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// Key returns the identity column of row, trimmed.
func (s *Schema) Key(row []string) string {
	return strings.TrimSpace(s.cell(row, s.KeyField()))
}

// Decode maps a positional row to field values. Rows missing any required
// field yield ErrMalformedRow.
func (s *Schema) Decode(row []string) (map[string]string, error) {
	for _, f := range s.required {
		if strings.TrimSpace(s.cell(row, f)) == "" {
			return nil, fmt.Errorf("%w: %s is empty", apperrors.ErrMalformedRow, f)
		}
	}
	values := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		values[f] = s.cell(row, f)
	}
	return values, nil
}

// Encode builds a fixed-width row; unset fields are empty strings.
func (s *Schema) Encode(values map[string]string) []string {
	row := make([]string, s.width)
	for f, idx := range s.index {
		row[idx] = values[f]
	}
	return row
}

// Update is a partial record: only fields present in the map are written.
type Update map[string]string

// Merge overlays update on current. Every column the update does not name,
// including columns no field maps to, keeps its current value verbatim.
func (s *Schema) Merge(current []string, update Update) ([]string, error) {
	if err := s.checkUpdate(current, update); err != nil {
		return nil, err
	}
	width := max(s.width, len(current))
	row := make([]string, width)
	copy(row, current)
	for f, v := range update {
		row[s.index[f]] = v
	}
	return row, nil
}

func (s *Schema) checkUpdate(current []string, update Update) error {
	if len(update) == 0 {
		return fmt.Errorf("%w: empty update", apperrors.ErrInvalidInput)
	}
	for f, v := range update {
		if _, ok := s.index[f]; !ok {
			return fmt.Errorf("%w: %s has no field %q", apperrors.ErrInvalidInput, s.name, f)
		}
		if f == s.KeyField() && strings.TrimSpace(v) != s.Key(current) {
			return fmt.Errorf("%w: %s is immutable", apperrors.ErrInvalidInput, f)
		}
	}
	return nil
}
