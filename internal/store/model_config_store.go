package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// ModelConfig is a per-artifact-type override of the completion model.
type ModelConfig struct {
	ArtifactType string    `db:"artifact_type"`
	ModelName    string    `db:"model_name"`
	Temperature  float64   `db:"temperature"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ModelConfigStore is the sqlx-backed store for the model_configs table.
type ModelConfigStore struct {
	db *sqlx.DB
}

func NewModelConfigStore(db *sqlx.DB) *ModelConfigStore {
	return &ModelConfigStore{db: db}
}

func (s *ModelConfigStore) q(query string) string { return s.db.Rebind(query) }

// Get returns the override for artifactType, or ErrNotFound.
func (s *ModelConfigStore) Get(ctx context.Context, artifactType string) (*ModelConfig, error) {
	var m ModelConfig
	err := s.db.GetContext(ctx, &m, s.q(`SELECT * FROM model_configs WHERE artifact_type = ?`), artifactType)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns every stored override ordered by artifact type.
func (s *ModelConfigStore) List(ctx context.Context) ([]*ModelConfig, error) {
	var configs []*ModelConfig
	err := s.db.SelectContext(ctx, &configs, `SELECT * FROM model_configs ORDER BY artifact_type ASC`)
	if err != nil {
		return nil, err
	}
	return configs, nil
}

// Upsert creates or replaces the override for artifactType.
func (s *ModelConfigStore) Upsert(ctx context.Context, artifactType, modelName string, temperature float64) (*ModelConfig, error) {
	if temperature < 0 || temperature > 1 {
		return nil, ErrInvalidTemperature
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing ModelConfig
	err = tx.GetContext(ctx, &existing, s.q(`SELECT * FROM model_configs WHERE artifact_type = ?`), artifactType)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO model_configs (artifact_type, model_name, temperature, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`), artifactType, modelName, temperature, now, now)
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent insert; retry as an update.
			tx.Rollback()
			return s.Upsert(ctx, artifactType, modelName, temperature)
		}
		existing.CreatedAt = now
	case err == nil:
		_, err = tx.ExecContext(ctx, s.q(`
			UPDATE model_configs SET model_name = ?, temperature = ?, updated_at = ? WHERE artifact_type = ?
		`), modelName, temperature, now, artifactType)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ModelConfig{
		ArtifactType: artifactType,
		ModelName:    modelName,
		Temperature:  temperature,
		CreatedAt:    existing.CreatedAt,
		UpdatedAt:    now,
	}, nil
}
