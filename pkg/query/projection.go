// Package query builds parameterized SQL queries from logical field names.
package query

import (
	"fmt"
	"strings"
)

type projected struct {
	column string
	field  string
}

// ProjectionMap maps logical field names to qualified table columns.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []projected
	fields  map[string]string
}

// NewProjectionMap creates a ProjectionMap for a single table.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project registers a column under a logical field name and returns the map
// for chaining.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns = append(p.columns, projected{column: qualified, field: field})
	p.fields[field] = qualified
	return p
}

// Column returns the qualified column for a logical field name. Unknown
// fields pass through unchanged; callers that accept runtime field names
// must filter with Has first.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Has reports whether a logical field name is registered.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

// Columns returns the comma-separated select list.
func (p *ProjectionMap) Columns() string {
	parts := make([]string, len(p.columns))
	for i, c := range p.columns {
		parts[i] = c.column
	}
	return strings.Join(parts, ", ")
}

// From returns the schema-qualified table reference with alias.
func (p *ProjectionMap) From() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}
