package database

import (
	"strings"
)

// QueryBuilder converts SQL queries with ? placeholders to dialect-specific format.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts a query with ? placeholders to dialect-specific placeholders.
// Question marks inside single-quoted literals are left alone.
//
// Example:
//
//	input:    "SELECT seed FROM maps WHERE layer_count = ? AND seed <> ?"
//	SQLite:   "SELECT seed FROM maps WHERE layer_count = ? AND seed <> ?"
//	Postgres: "SELECT seed FROM maps WHERE layer_count = $1 AND seed <> $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	result.Grow(len(query) + 8)
	position := 1
	quoted := false

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			result.WriteByte(c)
		case c == '?' && !quoted:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(c)
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect requires it.
// Used for INSERT statements that need the inserted ID.
//
// Example:
//
//	input:    "INSERT INTO maps (seed) VALUES (?)", "id"
//	SQLite:   "INSERT INTO maps (seed) VALUES (?)"
//	Postgres: "INSERT INTO maps (seed) VALUES ($1) RETURNING id"
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
