package table

import (
	"fmt"
	"slices"
	"sort"

	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/utils"
)

// Table is an ordered set of rows over a fixed column list. Kind is empty
// for tables that mix kinds.
type Table struct {
	Name    string
	Kind    models.Kind
	Columns []Column
	Rows    [][]any
}

// Build materializes records into a table with the given columns.
func Build(name string, kind models.Kind, cols []Column, records []models.CanonicalRecord) *Table {
	t := &Table{
		Name:    name,
		Kind:    kind,
		Columns: slices.Clone(cols),
		Rows:    make([][]any, 0, len(records)),
	}
	for i := range records {
		row := make([]any, len(cols))
		for j, c := range cols {
			if c.value != nil {
				row[j] = c.value(&records[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for the named column, nil when the column
// does not exist.
func (t *Table) Value(row int, name string) any {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	return t.Rows[row][i]
}

// Unify merges tables into one whose columns are the union of theirs in
// global order. Missing cells are null. Tables are concatenated by kind
// rank so the result does not depend on argument order.
func Unify(name string, tables ...*Table) *Table {
	ordered := slices.Clone(tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind.Rank() < ordered[j].Kind.Rank()
	})

	var cols []Column
	seen := make(map[string]bool)
	for _, t := range ordered {
		for _, c := range t.Columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				cols = append(cols, c)
			}
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return rank(cols[i].Name) < rank(cols[j].Name)
	})

	out := &Table{Name: name, Columns: cols}
	for _, t := range ordered {
		slot := make([]int, len(cols))
		for i, c := range cols {
			slot[i] = t.Index(c.Name)
		}
		for _, src := range t.Rows {
			row := make([]any, len(cols))
			for i, from := range slot {
				if from >= 0 {
					row[i] = src[from]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// WithConstant returns a copy where every row holds v in the named column.
func (t *Table) WithConstant(name string, v any) (*Table, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, fmt.Errorf("[Table] unknown column %q", name)
	}
	out := t.clone()
	for _, row := range out.Rows {
		row[i] = v
	}
	return out, nil
}

// Distinct drops rows whose key columns repeat an earlier row.
func (t *Table) Distinct(keys ...string) (*Table, int) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = t.Index(k)
	}
	out := t.clone()
	rows, dropped := utils.DedupeBy(out.Rows, func(row []any) string {
		key := ""
		for _, i := range idx {
			if i >= 0 {
				key += fmt.Sprintf("%v\x00", row[i])
			}
		}
		return key
	})
	out.Rows = rows
	return out, dropped
}

// Extend returns a copy with extra columns appended. fill receives each
// row index and returns the new cells in column order.
func (t *Table) Extend(name string, cols []Column, fill func(row int) []any) *Table {
	out := &Table{
		Name:    name,
		Kind:    t.Kind,
		Columns: append(slices.Clone(t.Columns), cols...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, src := range t.Rows {
		row := make([]any, 0, len(out.Columns))
		row = append(row, src...)
		extra := fill(i)
		for j := range cols {
			var v any
			if j < len(extra) {
				v = extra[j]
			}
			row = append(row, v)
		}
		out.Rows[i] = row
	}
	return out
}

func (t *Table) clone() *Table {
	out := &Table{
		Name:    t.Name,
		Kind:    t.Kind,
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}
