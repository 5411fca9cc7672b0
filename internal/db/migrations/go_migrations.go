// Package migrations holds the Go migrations that need per-driver DDL.
// Plain SQL migrations live next to this file and are embedded by package db.
package migrations

// dialect is the goose dialect of the database being migrated.
var dialect string

// SetDialect records the dialect for the Go migrations. db.Migrate calls it
// before goose.Up.
func SetDialect(d string) {
	dialect = d
}
