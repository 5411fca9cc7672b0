package db

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlDriverNames maps the configured db.driver to the database/sql driver
// registered by the imports above. modernc registers itself as "sqlite".
var sqlDriverNames = map[string]string{
	"sqlite3":  "sqlite",
	"mysql":    "mysql",
	"postgres": "postgres",
}

// New opens the artifact database. MySQL DSNs need parseTime=true so the
// created_at and updated_at columns scan into time.Time.
func New(driver, dsn string) (*sqlx.DB, error) {
	name, ok := sqlDriverNames[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported DB driver %q: must be sqlite3, mysql, or postgres", driver)
	}
	conn, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// Refines rewrite artifact rows while reads continue; WAL keeps
		// readers off the writer's lock.
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := conn.Exec(pragma); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("sqlite %q: %w", pragma, err)
			}
		}
	}
	return conn, nil
}
