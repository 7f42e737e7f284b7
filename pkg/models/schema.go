package models

import "github.com/google/uuid"

// Column describes a single table column.
type Column struct {
	Name        string `json:"name"`
	DataType    string `json:"data_type"`
	IsNullable  bool   `json:"is_nullable"`
	IsPrimary   bool   `json:"is_primary"`
	Description string `json:"description,omitempty"`
}

// JoinHint is a declared join path from one table to another.
type JoinHint struct {
	Target string `json:"target"` // target table name
	On     string `json:"on"`     // join condition, e.g. "orders.customer_id = customers.id"
}

// ExampleQuery is a curated (question, SQL) pair attached to a table.
type ExampleQuery struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// Table holds the metadata for one table of a database source.
type Table struct {
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Columns         []Column       `json:"columns"`
	RequiredColumns []string       `json:"required_columns,omitempty"`
	JoinHints       []JoinHint     `json:"join_hints,omitempty"`
	ExampleQueries  []ExampleQuery `json:"example_queries,omitempty"`
	Notes           []string       `json:"notes,omitempty"`
}

// ColumnByName returns the column with the given name, or nil.
func (t *Table) ColumnByName(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// SchemaMetadata is the full table catalog of one database source.
// Instances are treated as immutable once published.
type SchemaMetadata struct {
	SourceID uuid.UUID `json:"source_id"`
	Tables   []Table   `json:"tables"`
}

// TableByName returns the table with the given name (exact match), or nil.
func (m *SchemaMetadata) TableByName(name string) *Table {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}
	return nil
}

// TableNames returns the table names in declaration order.
func (m *SchemaMetadata) TableNames() []string {
	names := make([]string, len(m.Tables))
	for i := range m.Tables {
		names[i] = m.Tables[i].Name
	}
	return names
}
