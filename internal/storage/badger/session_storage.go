package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
)

// SessionStorage implements interfaces.SessionStorage on badgerhold
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SessionStorage) SaveSession(ctx context.Context, session *models.Session) error {
	if session.Name == "" {
		return fmt.Errorf("session name is required")
	}
	if err := s.db.Store().Upsert(session.Name, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	s.logger.Debug().
		Str("session", session.Name).
		Int("cookies", len(session.Cookies)).
		Msg("Session stored")
	return nil
}

func (s *SessionStorage) GetSession(ctx context.Context, name string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Store().Get(name, &session); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrSessionNotFound, name)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionStorage) DeleteSession(ctx context.Context, name string) error {
	if err := s.db.Store().Delete(name, &models.Session{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SessionStorage) ListSessions(ctx context.Context) ([]*models.Session, error) {
	var sessions []models.Session
	if err := s.db.Store().Find(&sessions, nil); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]*models.Session, len(sessions))
	for i := range sessions {
		result[i] = &sessions[i]
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *SessionStorage) ClearAll(ctx context.Context) (int, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return 0, err
	}
	for _, session := range sessions {
		if err := s.DeleteSession(ctx, session.Name); err != nil {
			return 0, err
		}
	}
	return len(sessions), nil
}
