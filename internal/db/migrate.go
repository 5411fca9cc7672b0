package db

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/joestump/splashgen/internal/db/migrations"
)

// Migrations holds the portable SQL migrations: artifacts, model configs and
// prompt template overrides.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Migrate brings the schema up to date for driver. The sessions table is a
// Go migration because its column types depend on the scs store in use.
// serve and generate call it before touching any store.
func Migrate(conn *sqlx.DB, driver string) error {
	if _, ok := sqlDriverNames[driver]; !ok {
		return fmt.Errorf("unknown driver for migrations: %q", driver)
	}
	// The configured driver names are also goose dialect names.
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	migrations.SetDialect(driver)

	sub, err := fs.Sub(Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(conn.DB, "."); err != nil {
		return fmt.Errorf("migrate artifacts schema: %w", err)
	}
	return nil
}
