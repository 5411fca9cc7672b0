package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Artifact represents a row in the artifacts table.
type Artifact struct {
	ID           string    `db:"id"`
	ArtifactType string    `db:"artifact_type"`
	Variant      string    `db:"variant"`
	Content      string    `db:"content"`
	ButtonURL    string    `db:"button_url"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ArtifactStore is the sqlx-backed store for generated artifacts.
// Artifacts are inserted on create and rewritten in place on refine; nothing
// in the generation path deletes them.
type ArtifactStore struct {
	db *sqlx.DB
}

func NewArtifactStore(db *sqlx.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *ArtifactStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new artifact with a fresh id and returns it.
func (s *ArtifactStore) Create(ctx context.Context, artifactType, variant, content, buttonURL string) (*Artifact, error) {
	a := &Artifact{
		ID:           uuid.New().String(),
		ArtifactType: artifactType,
		Variant:      variant,
		Content:      content,
		ButtonURL:    buttonURL,
		CreatedAt:    time.Now().UTC(),
	}
	a.UpdatedAt = a.CreatedAt

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO artifacts (id, artifact_type, variant, content, button_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), a.ID, a.ArtifactType, a.Variant, a.Content, a.ButtonURL, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID returns the artifact matching id, or ErrNotFound.
func (s *ArtifactStore) GetByID(ctx context.Context, id string) (*Artifact, error) {
	var a Artifact
	err := s.db.GetContext(ctx, &a, s.q(`SELECT * FROM artifacts WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Update replaces the content of an existing artifact of the given type. An
// empty variant or buttonURL keeps the stored value. Returns ErrNotFound when
// id does not exist and ErrArtifactTypeMismatch when it holds another type.
//
// There is no per-artifact lock: two concurrent updates of the same id both
// succeed and the later commit wins.
func (s *ArtifactStore) Update(ctx context.Context, id, artifactType, variant, content, buttonURL string) (*Artifact, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var a Artifact
	err = tx.GetContext(ctx, &a, s.q(`SELECT * FROM artifacts WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.ArtifactType != artifactType {
		return nil, fmt.Errorf("%w: %s is a %s artifact", ErrArtifactTypeMismatch, id, a.ArtifactType)
	}

	a.Content = content
	if variant != "" {
		a.Variant = variant
	}
	if buttonURL != "" {
		a.ButtonURL = buttonURL
	}
	a.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, s.q(`
		UPDATE artifacts SET variant = ?, content = ?, button_url = ?, updated_at = ?
		WHERE id = ? AND artifact_type = ?
	`), a.Variant, a.Content, a.ButtonURL, a.UpdatedAt, id, artifactType)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &a, nil
}
