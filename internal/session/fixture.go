// Package session provides the authenticated-session fixture shared by the
// scenarios. A session is created by logging in once, persisted, and reused
// by injecting its cookies until it expires or is invalidated.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
)

// LoginFunc performs an interactive login in the browser
type LoginFunc func(ctx context.Context) error

// ValidateFunc checks that restored cookies still authenticate
type ValidateFunc func(ctx context.Context) error

// Source tells where Ensure got its session from
type Source string

const (
	SourceMemory Source = "memory"
	SourceStore  Source = "store"
	SourceLogin  Source = "login"
)

// Fixture hands out named sessions. Sessions are read-only once created.
type Fixture struct {
	storage  interfaces.SessionStorage
	jar      interfaces.CookieJar
	origin   string
	ttl      time.Duration
	validate ValidateFunc
	logger   arbor.ILogger
	now      func() time.Time

	mu     sync.Mutex
	cached map[string]*models.Session
}

// NewFixture creates a fixture. origin is recorded on new sessions; ttl <= 0
// keeps sessions until their cookies expire.
func NewFixture(storage interfaces.SessionStorage, jar interfaces.CookieJar, origin string, ttl time.Duration, logger arbor.ILogger) *Fixture {
	return &Fixture{
		storage: storage,
		jar:     jar,
		origin:  origin,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		cached:  make(map[string]*models.Session),
	}
}

// WithValidator sets a check run after restoring a cached session. A failing
// check discards the cached session and logs in again.
func (f *Fixture) WithValidator(validate ValidateFunc) *Fixture {
	f.validate = validate
	return f
}

// Ensure makes the browser authenticated as the named session, logging in
// only when no usable cached session exists.
func (f *Fixture) Ensure(ctx context.Context, name string, login LoginFunc) (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, source, err := f.lookup(ctx, name)
	if err != nil {
		return "", err
	}

	if session != nil {
		err := f.restore(ctx, session)
		if err == nil {
			f.cached[name] = session
			f.logger.Info().
				Str("session", name).
				Str("source", string(source)).
				Int("cookies", len(session.Cookies)).
				Msg("Session restored")
			return source, nil
		}
		f.logger.Warn().Err(err).Str("session", name).Msg("Cached session rejected, logging in again")
		if err := f.invalidateLocked(ctx, name); err != nil {
			return "", err
		}
	}

	if err := f.create(ctx, name, login); err != nil {
		return "", err
	}
	return SourceLogin, nil
}

// lookup finds an unexpired cached session, in memory first
func (f *Fixture) lookup(ctx context.Context, name string) (*models.Session, Source, error) {
	now := f.now()

	if s, ok := f.cached[name]; ok {
		if !s.Expired(now, f.ttl) {
			return s, SourceMemory, nil
		}
		delete(f.cached, name)
	}

	s, err := f.storage.GetSession(ctx, name)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}
	if s.Expired(now, f.ttl) {
		f.logger.Debug().Str("session", name).Str("created_at", s.CreatedAt.Format(time.RFC3339)).Msg("Cached session expired")
		if err := f.storage.DeleteSession(ctx, name); err != nil {
			return nil, "", err
		}
		return nil, "", nil
	}
	return s, SourceStore, nil
}

func (f *Fixture) restore(ctx context.Context, s *models.Session) error {
	if err := f.jar.SetCookies(ctx, s.Cookies); err != nil {
		return fmt.Errorf("restore session %s: %w", s.Name, err)
	}
	if f.validate != nil {
		if err := f.validate(ctx); err != nil {
			return fmt.Errorf("validate session %s: %w", s.Name, err)
		}
	}
	return nil
}

func (f *Fixture) create(ctx context.Context, name string, login LoginFunc) error {
	start := f.now()
	if err := login(ctx); err != nil {
		return fmt.Errorf("login for session %s: %w", name, err)
	}

	cookies, err := f.jar.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("capture session %s: %w", name, err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("capture session %s: login left no cookies", name)
	}

	s := &models.Session{
		Name:      name,
		Origin:    f.origin,
		Cookies:   cookies,
		CreatedAt: f.now(),
	}
	if err := f.storage.SaveSession(ctx, s); err != nil {
		return err
	}
	f.cached[name] = s

	f.logger.Info().
		Str("session", name).
		Int("cookies", len(cookies)).
		Dur("login_time", f.now().Sub(start)).
		Msg("Session created")
	return nil
}

// Invalidate removes a session from memory and the persistent cache
func (f *Fixture) Invalidate(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidateLocked(ctx, name)
}

func (f *Fixture) invalidateLocked(ctx context.Context, name string) error {
	delete(f.cached, name)
	if err := f.storage.DeleteSession(ctx, name); err != nil {
		return fmt.Errorf("invalidate session %s: %w", name, err)
	}
	return nil
}

// Cached returns the in-memory session for name, if any
func (f *Fixture) Cached(name string) (*models.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.cached[name]
	return s, ok
}
