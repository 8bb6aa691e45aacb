package query

import "time"

// Column describes one column of a result table.
type Column struct {
	Name         string
	DatabaseType string
}

// Row is one row of a result table. Values are positional; lookups by name
// return the first column with that name.
type Row struct {
	values []Value
	index  map[string]int
}

// Values returns the row's cells in column order.
func (r Row) Values() []Value {
	return r.values
}

// Len returns the number of cells in the row.
func (r Row) Len() int {
	return len(r.values)
}

// At returns the cell at position i.
func (r Row) At(i int) Value {
	if i < 0 || i >= len(r.values) {
		return Null()
	}
	return r.values[i]
}

// Get returns the cell in the named column.
func (r Row) Get(column string) (Value, bool) {
	i, ok := r.index[column]
	if !ok {
		return Null(), false
	}
	return r.values[i], true
}

// Table is an ordered set of named columns and rows.
type Table struct {
	Columns []Column
	Rows    []Row

	index map[string]int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []Column) *Table {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := index[col.Name]; !dup {
			index[col.Name] = i
		}
	}
	return &Table{
		Columns: columns,
		Rows:    []Row{},
		index:   index,
	}
}

// AppendRow adds a row. values must be in column order.
func (t *Table) AppendRow(values []Value) {
	t.Rows = append(t.Rows, Row{values: values, index: t.index})
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Maps returns the rows as column-name keyed maps of plain Go values.
func (t *Table) Maps() []map[string]interface{} {
	if t == nil {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			if _, exists := m[col.Name]; !exists {
				m[col.Name] = row.At(i).Interface()
			}
		}
		out = append(out, m)
	}
	return out
}

// ResultSet holds every row set produced by one execution.
type ResultSet struct {
	Tables        []*Table
	ExecutionTime time.Duration
}

// First returns the first row set, or nil when there is none.
func (rs *ResultSet) First() *Table {
	if rs == nil || len(rs.Tables) == 0 {
		return nil
	}
	return rs.Tables[0]
}
