// Package records treats a row-addressed remote table as a store of typed
// records. The table has no index, upsert or transaction: every operation
// re-reads the table and row positions are never cached between calls.
package records

import (
	"context"
	"fmt"
	"leadsync/internal/apperrors"
	"leadsync/internal/providers"
	"strings"
)

// TableAPI addresses body rows (header excluded) by zero-based index.
type TableAPI interface {
	ReadRows(ctx context.Context, table string) ([][]string, error)
	AppendRow(ctx context.Context, table string, row []string) error
	WriteRow(ctx context.Context, table string, rowIndex int, row []string) error
	DeleteRow(ctx context.Context, table string, rowIndex int) error
}

// Codec converts between a record and its field values.
type Codec[T any] interface {
	Encode(rec T) map[string]string
	Decode(values map[string]string) T
}

type Store[T any] struct {
	api     TableAPI
	schema  *Schema
	codec   Codec[T]
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewStore[T any](api TableAPI, schema *Schema, codec Codec[T], logger providers.Logger, metrics providers.MetricsProviderInterface) *Store[T] {
	return &Store[T]{
		api:     api,
		schema:  schema,
		codec:   codec,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Store[T]) Schema() *Schema {
	return s.schema
}

// entries reads the whole table and drops rows failing the required-field check.
func (s *Store[T]) entries(ctx context.Context) ([]map[string]string, error) {
	rows, err := s.api.ReadRows(ctx, s.schema.Sheet())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.schema.Name(), err)
	}
	out := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		values, err := s.schema.Decode(row)
		if err != nil {
			// +2: one-based sheet rows below the header
			s.logger.Warnf(providers.TypeSync, "Dropping %s row %d: %s", s.schema.Name(), i+2, err)
			continue
		}
		out = append(out, values)
	}
	return out, nil
}

func (s *Store[T]) ListAll(ctx context.Context) ([]T, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.codec.Decode(e))
	}
	return out, nil
}

// FilterByField is a client-side scan; the table offers no indexed query.
func (s *Store[T]) FilterByField(ctx context.Context, field, value string) ([]T, error) {
	if _, ok := s.schema.Index(field); !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", apperrors.ErrInvalidInput, s.schema.Name(), field)
	}
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	out := make([]T, 0)
	for _, e := range entries {
		if strings.TrimSpace(e[field]) == value {
			out = append(out, s.codec.Decode(e))
		}
	}
	return out, nil
}

func (s *Store[T]) FindByKey(ctx context.Context, key string) (T, error) {
	var zero T
	entries, err := s.entries(ctx)
	if err != nil {
		return zero, err
	}
	key = strings.TrimSpace(key)
	for _, e := range entries {
		if strings.TrimSpace(e[s.schema.KeyField()]) == key {
			return s.codec.Decode(e), nil
		}
	}
	return zero, s.notFound(key)
}

// Append writes rec as a new row at the end of the table. There is no
// uniqueness check on the key.
func (s *Store[T]) Append(ctx context.Context, rec T) error {
	values := s.codec.Encode(rec)
	if strings.TrimSpace(values[s.schema.KeyField()]) == "" {
		return fmt.Errorf("%w: %s requires %s", apperrors.ErrInvalidInput, s.schema.Name(), s.schema.KeyField())
	}
	if _, err := s.schema.Decode(s.schema.Encode(values)); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err)
	}
	err := s.api.AppendRow(ctx, s.schema.Sheet(), s.schema.Encode(values))
	s.observeWrite(err)
	if err != nil {
		return fmt.Errorf("append %s: %w", s.schema.Name(), err)
	}
	return nil
}

// UpdateByKey re-reads the table, locates key by scan, merges update over the
// row's current contents and writes the result back to the same row index.
// Read and write are not atomic: concurrent writers to one key race and the
// last write wins.
func (s *Store[T]) UpdateByKey(ctx context.Context, key string, update Update) error {
	index, current, err := s.locate(ctx, key)
	if err != nil {
		return err
	}
	row, err := s.schema.Merge(current, update)
	if err != nil {
		return err
	}
	err = s.api.WriteRow(ctx, s.schema.Sheet(), index, row)
	s.observeWrite(err)
	if err != nil {
		return fmt.Errorf("update %s %q: %w", s.schema.Name(), key, err)
	}
	return nil
}

// DeleteByKey removes the row; rows below it shift up.
func (s *Store[T]) DeleteByKey(ctx context.Context, key string) error {
	index, _, err := s.locate(ctx, key)
	if err != nil {
		return err
	}
	err = s.api.DeleteRow(ctx, s.schema.Sheet(), index)
	s.observeWrite(err)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", s.schema.Name(), key, err)
	}
	return nil
}

// locate returns the current index and contents of the first well-formed
// row whose identity column equals key. Malformed rows are skipped the same
// way entries drops them, but still count toward the physical index.
func (s *Store[T]) locate(ctx context.Context, key string) (int, []string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, nil, fmt.Errorf("%w: empty %s", apperrors.ErrInvalidInput, s.schema.KeyField())
	}
	rows, err := s.api.ReadRows(ctx, s.schema.Sheet())
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", s.schema.Name(), err)
	}
	for i, row := range rows {
		if s.schema.Key(row) != key {
			continue
		}
		if _, err := s.schema.Decode(row); err != nil {
			continue
		}
		return i, row, nil
	}
	return 0, nil, s.notFound(key)
}

func (s *Store[T]) notFound(key string) error {
	return fmt.Errorf("%s %q: %w", s.schema.Name(), key, apperrors.ErrNotFound)
}

func (s *Store[T]) observeWrite(err error) {
	if err != nil {
		s.metrics.IncRecordWrites(s.schema.Name(), "failed")
		return
	}
	s.metrics.IncRecordWrites(s.schema.Name(), "ok")
}
