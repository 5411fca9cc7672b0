package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

const (
	// SessionArtifactsKey holds the ids of artifacts produced in a session,
	// most recent first.
	SessionArtifactsKey = "artifact_ids"

	// MaxSessionArtifacts caps the ids kept per session.
	MaxSessionArtifacts = 20
)

// NewSessionManager creates an SCS session manager backed by the application DB.
// The driver parameter selects the appropriate store: "mysql", "postgres", or
// "sqlite3" (default).
func NewSessionManager(db *sqlx.DB, driver string, lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	switch driver {
	case "mysql":
		sm.Store = mysqlstore.New(db.DB)
	case "postgres":
		sm.Store = postgresstore.New(db.DB)
	default: // sqlite3
		sm.Store = sqlite3store.New(db.DB)
	}
	sm.Lifetime = lifetime
	sm.Cookie.Name = "splashgen_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// RecordArtifact moves id to the front of the session's artifact list.
func RecordArtifact(ctx context.Context, sm *scs.SessionManager, id string) {
	ids := []string{id}
	for _, existing := range SessionArtifacts(ctx, sm) {
		if existing != id && len(ids) < MaxSessionArtifacts {
			ids = append(ids, existing)
		}
	}
	sm.Put(ctx, SessionArtifactsKey, ids)
}

// SessionArtifacts returns the artifact ids recorded in the session.
func SessionArtifacts(ctx context.Context, sm *scs.SessionManager) []string {
	ids, _ := sm.Get(ctx, SessionArtifactsKey).([]string)
	return ids
}
