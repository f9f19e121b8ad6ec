package domain

import "time"

// Value is a single cell of a result table row.
type Value struct {
	Value string
}

// Row is one record of a result table.
type Row struct {
	Values []*Value
}

// AddValue appends a cell; the string is an owned copy by construction.
func (r *Row) AddValue(s string) {
	r.Values = append(r.Values, &Value{Value: s})
}

// Table holds the tabular output of one measurement invocation.
type Table struct {
	Rows []*Row
}

// AddRow appends a row.
func (t *Table) AddRow(row *Row) {
	t.Rows = append(t.Rows, row)
}

// Result is the in-memory form of one reported Action invocation,
// reconstructed from a .meta/.data pair. A Result read from an orphaned
// meta file (daemon crashed before reap) has zero End and no Status.
type Result struct {
	Schedule    string
	Action      string
	Task        string
	Options     []*Option
	Tags        Tags
	Event       time.Time
	Start       time.Time
	End         time.Time
	CycleNumber string
	Status      int
	HasStatus   bool
	Tables      []*Table
}

// AddTable attaches a data table to the result.
func (r *Result) AddTable(t *Table) {
	r.Tables = append(r.Tables, t)
}
