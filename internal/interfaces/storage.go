package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/hubcheck/internal/models"
)

// ErrSessionNotFound is returned when no session is cached under a name
var ErrSessionNotFound = errors.New("session not found")

// SessionStorage - interface for cached authenticated sessions
type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, name string) (*models.Session, error)
	DeleteSession(ctx context.Context, name string) error
	ListSessions(ctx context.Context) ([]*models.Session, error)

	// ClearAll removes every cached session and reports how many were removed
	ClearAll(ctx context.Context) (int, error)
}

// CookieJar reads and writes the browser's cookies
type CookieJar interface {
	Cookies(ctx context.Context) ([]models.Cookie, error)
	SetCookies(ctx context.Context, cookies []models.Cookie) error
}

// RunStorage - interface for the history of completed suite runs
type RunStorage interface {
	SaveRun(ctx context.Context, summary *models.RunSummary) error

	// ListRuns returns the most recent runs first; limit <= 0 returns all
	ListRuns(ctx context.Context, limit int) ([]*models.RunSummary, error)
}
