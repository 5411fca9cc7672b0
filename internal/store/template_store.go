package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// PromptTemplate is an administrative override of a built-in prompt body.
// Variant is "" for artifact types without a style axis.
type PromptTemplate struct {
	ArtifactType string    `db:"artifact_type"`
	Operation    string    `db:"operation"`
	Variant      string    `db:"variant"`
	Content      string    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// TemplateStore is the sqlx-backed store for the prompt_templates table.
type TemplateStore struct {
	db *sqlx.DB
}

func NewTemplateStore(db *sqlx.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) q(query string) string { return s.db.Rebind(query) }

const templateKeyWhere = `artifact_type = ? AND operation = ? AND variant = ?`

// Get returns the override stored for the key, or ErrNotFound.
func (s *TemplateStore) Get(ctx context.Context, artifactType, operation, variant string) (*PromptTemplate, error) {
	var t PromptTemplate
	err := s.db.GetContext(ctx, &t, s.q(`SELECT * FROM prompt_templates WHERE `+templateKeyWhere),
		artifactType, operation, variant)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns every stored override.
func (s *TemplateStore) List(ctx context.Context) ([]*PromptTemplate, error) {
	var templates []*PromptTemplate
	err := s.db.SelectContext(ctx, &templates, `
		SELECT * FROM prompt_templates ORDER BY artifact_type ASC, operation ASC, variant ASC
	`)
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// Upsert creates or replaces the override for the key.
func (s *TemplateStore) Upsert(ctx context.Context, artifactType, operation, variant, content string) (*PromptTemplate, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var existing PromptTemplate
	err = tx.GetContext(ctx, &existing, s.q(`SELECT * FROM prompt_templates WHERE `+templateKeyWhere),
		artifactType, operation, variant)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO prompt_templates (artifact_type, operation, variant, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), artifactType, operation, variant, content, now, now)
		if isUniqueConstraintError(err) {
			tx.Rollback()
			return s.Upsert(ctx, artifactType, operation, variant, content)
		}
		existing.CreatedAt = now
	case err == nil:
		_, err = tx.ExecContext(ctx, s.q(`
			UPDATE prompt_templates SET content = ?, updated_at = ? WHERE `+templateKeyWhere),
			content, now, artifactType, operation, variant)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &PromptTemplate{
		ArtifactType: artifactType,
		Operation:    operation,
		Variant:      variant,
		Content:      content,
		CreatedAt:    existing.CreatedAt,
		UpdatedAt:    now,
	}, nil
}
