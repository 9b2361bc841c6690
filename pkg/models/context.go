package models

import (
	"sort"

	"github.com/google/uuid"
)

// TimeRange is the resolved reporting window for a request.
// Dates use YYYY-MM-DD; the generated SQL compares against these bounds.
type TimeRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// IsZero reports whether the range carries no usable bounds.
func (t TimeRange) IsZero() bool {
	return t.Start == "" && t.End == ""
}

// Schema maps table names to their column names.
type Schema map[string][]string

// Tables returns the table names in sorted order for stable prompts and logs.
func (s Schema) Tables() []string {
	tables := make([]string, 0, len(s))
	for name := range s {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}

// HasTable reports whether the schema contains the named table.
func (s Schema) HasTable(name string) bool {
	_, ok := s[name]
	return ok
}

// DatasourceConfig identifies the database a generated query will run against.
// DSN carries credentials; sanitize before logging.
type DatasourceConfig struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"` // "postgres" or "sqlserver"
	DSN  string    `json:"dsn"`
}

// ContextSnapshot is the caller-supplied execution context for one request.
// Fields may be partially populated; the pipeline resolves what is missing.
type ContextSnapshot struct {
	// TimeRange, when present, always wins over time inference.
	TimeRange *TimeRange `json:"time_range,omitempty"`

	// Schema is the known table->columns mapping, if the caller already has one.
	Schema Schema `json:"schema,omitempty"`

	// SelectedTables is an explicit table hint, highest priority for schema lookup.
	SelectedTables []string `json:"selected_tables,omitempty"`

	// Tables is a generic table list, used when SelectedTables is empty.
	Tables []string `json:"tables,omitempty"`

	// ColumnDetails maps table names to column descriptions; its keys are the
	// lowest-priority table hint.
	ColumnDetails map[string][]string `json:"column_details,omitempty"`

	// Datasource is the target database configuration.
	Datasource *DatasourceConfig `json:"datasource,omitempty"`

	// Clarifications holds answers the user already gave to earlier questions.
	Clarifications map[string]string `json:"clarifications,omitempty"`
}

// CandidateTables returns table name hints in priority order:
// explicit selection, then the generic table list, then column-detail keys.
// Returns nil when the snapshot names no tables at all.
func (c *ContextSnapshot) CandidateTables() []string {
	if c == nil {
		return nil
	}
	if len(c.SelectedTables) > 0 {
		return c.SelectedTables
	}
	if len(c.Tables) > 0 {
		return c.Tables
	}
	if len(c.ColumnDetails) > 0 {
		keys := make([]string, 0, len(c.ColumnDetails))
		for name := range c.ColumnDetails {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}

// HasTimeIndicator reports whether the snapshot carries a usable time window.
func (c *ContextSnapshot) HasTimeIndicator() bool {
	return c != nil && c.TimeRange != nil && !c.TimeRange.IsZero()
}

// HasSchemaIndicator reports whether the snapshot names any tables, either as
// a resolved schema or as hints a resolver could act on.
func (c *ContextSnapshot) HasSchemaIndicator() bool {
	if c == nil {
		return false
	}
	return len(c.Schema) > 0 || len(c.SelectedTables) > 0 || len(c.Tables) > 0 || len(c.ColumnDetails) > 0
}
