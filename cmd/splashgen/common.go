package main

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/joestump/splashgen/internal/config"
	"github.com/joestump/splashgen/internal/db"
	"github.com/joestump/splashgen/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.Output,
	})
}

// openDB connects and brings the schema up to date.
func openDB(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}
