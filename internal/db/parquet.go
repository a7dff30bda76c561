package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/spacesedan/redditcanon/internal/table"
)

var (
	stringPtrType = reflect.TypeOf((*string)(nil))
	int64PtrType  = reflect.TypeOf((*int64)(nil))
	floatPtrType  = reflect.TypeOf((*float64)(nil))
	timePtrType   = reflect.TypeOf((*time.Time)(nil))
)

// ParquetWriter persists tables as <Dir>/<table name>.parquet. Every column
// is optional so null cells survive the round trip.
type ParquetWriter struct {
	Dir string
}

func NewParquetWriter(dir string) *ParquetWriter {
	return &ParquetWriter{Dir: dir}
}

func (w *ParquetWriter) Path(t *table.Table) string {
	return filepath.Join(w.Dir, t.Name+".parquet")
}

// Write replaces the table's file atomically.
func (w *ParquetWriter) Write(t *table.Table) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("[Parquet] creating %s: %w", w.Dir, err)
	}

	rowType, err := rowTypeOf(t.Columns)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(w.Dir, "."+t.Name+"-*.parquet")
	if err != nil {
		return "", fmt.Errorf("[Parquet] creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	pw := parquet.NewWriter(tmp, parquet.SchemaOf(reflect.New(rowType).Elem().Interface()))
	for i, cells := range t.Rows {
		row, err := rowValue(rowType, t.Columns, cells)
		if err != nil {
			tmp.Close()
			return "", fmt.Errorf("[Parquet] %s row %d: %w", t.Name, i, err)
		}
		if err := pw.Write(row.Interface()); err != nil {
			tmp.Close()
			return "", fmt.Errorf("[Parquet] writing %s row %d: %w", t.Name, i, err)
		}
	}
	if err := pw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("[Parquet] flushing %s: %w", t.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("[Parquet] closing %s: %w", t.Name, err)
	}

	path := w.Path(t)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("[Parquet] renaming into %s: %w", path, err)
	}

	slog.Info("[Parquet] Wrote table",
		slog.String("path", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Columns)))
	return path, nil
}

// rowTypeOf builds a struct type with one pointer field per column, in
// column order, so the parquet schema follows the table's order.
func rowTypeOf(cols []table.Column) (reflect.Type, error) {
	fields := make([]reflect.StructField, len(cols))
	for i, c := range cols {
		typ, err := goType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("[Parquet] column %s: %w", c.Name, err)
		}
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("Col%d", i),
			Type: typ,
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:"%s"`, c.Name)),
		}
	}
	return reflect.StructOf(fields), nil
}

func goType(t table.ColumnType) (reflect.Type, error) {
	switch t {
	case table.String:
		return stringPtrType, nil
	case table.Int64:
		return int64PtrType, nil
	case table.Float64:
		return floatPtrType, nil
	case table.Timestamp:
		return timePtrType, nil
	}
	return nil, fmt.Errorf("unsupported column type %s", t)
}

func rowValue(rowType reflect.Type, cols []table.Column, cells []any) (reflect.Value, error) {
	row := reflect.New(rowType).Elem()
	for i, c := range cols {
		if i >= len(cells) || cells[i] == nil {
			continue
		}
		v, err := cellValue(c.Type, cells[i])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("column %s: %w", c.Name, err)
		}
		row.Field(i).Set(v)
	}
	return row, nil
}

func cellValue(t table.ColumnType, cell any) (reflect.Value, error) {
	switch t {
	case table.String:
		if s, ok := cell.(string); ok {
			return reflect.ValueOf(&s), nil
		}
	case table.Int64:
		if n, ok := cell.(int64); ok {
			return reflect.ValueOf(&n), nil
		}
	case table.Float64:
		if f, ok := cell.(float64); ok {
			return reflect.ValueOf(&f), nil
		}
	case table.Timestamp:
		if ts, ok := cell.(time.Time); ok {
			ts = ts.UTC()
			return reflect.ValueOf(&ts), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cell %T does not fit %s", cell, t)
}
