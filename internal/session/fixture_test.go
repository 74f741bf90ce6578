package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
	"github.com/ternarybob/hubcheck/internal/storage/badger"
)

// memoryJar is a cookie jar where "logging in" sets a session cookie
type memoryJar struct {
	cookies  []models.Cookie
	injected int
}

func (j *memoryJar) Cookies(context.Context) ([]models.Cookie, error) {
	return append([]models.Cookie(nil), j.cookies...), nil
}

func (j *memoryJar) SetCookies(_ context.Context, cookies []models.Cookie) error {
	j.injected++
	j.cookies = append([]models.Cookie(nil), cookies...)
	return nil
}

func (j *memoryJar) login(calls *int) LoginFunc {
	return func(context.Context) error {
		*calls++
		j.cookies = []models.Cookie{{Name: "sid", Value: "v1", Domain: "app.example.com", Path: "/"}}
		return nil
	}
}

func newStorage(t *testing.T, dir string) interfaces.SessionStorage {
	t.Helper()
	db, err := badger.NewBadgerDB(arbor.NewLogger(), &common.SessionConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return badger.NewSessionStorage(db, arbor.NewLogger())
}

func TestEnsureLogsInOnceThenReusesMemory(t *testing.T) {
	jar := &memoryJar{}
	f := NewFixture(newStorage(t, t.TempDir()), jar, "https://app.example.com", time.Hour, arbor.NewLogger())
	ctx := context.Background()
	logins := 0

	source, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceLogin, source)

	source, err = f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceMemory, source)
	assert.Equal(t, 1, logins)
	assert.Equal(t, 1, jar.injected)

	cached, ok := f.Cached("s")
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com", cached.Origin)
	assert.Equal(t, "sid", cached.Cookies[0].Name)
}

func TestEnsureRestoresFromStoreAcrossFixtures(t *testing.T) {
	storage := newStorage(t, t.TempDir())
	ctx := context.Background()
	logins := 0

	first := &memoryJar{}
	_, err := NewFixture(storage, first, "", time.Hour, arbor.NewLogger()).Ensure(ctx, "s", first.login(&logins))
	require.NoError(t, err)

	second := &memoryJar{}
	source, err := NewFixture(storage, second, "", time.Hour, arbor.NewLogger()).Ensure(ctx, "s", second.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceStore, source)
	assert.Equal(t, 1, logins)
	assert.Equal(t, first.cookies, second.cookies, "cached cookies are injected into the new browser")
}

func TestEnsureLogsInAgainAfterTTL(t *testing.T) {
	jar := &memoryJar{}
	storage := newStorage(t, t.TempDir())
	f := NewFixture(storage, jar, "", time.Hour, arbor.NewLogger())
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }
	ctx := context.Background()
	logins := 0

	_, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	source, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceLogin, source)
	assert.Equal(t, 2, logins)
}

func TestEnsureDiscardsSessionFailingValidation(t *testing.T) {
	jar := &memoryJar{}
	valid := true
	f := NewFixture(newStorage(t, t.TempDir()), jar, "", 0, arbor.NewLogger()).
		WithValidator(func(context.Context) error {
			if !valid {
				return errors.New("redirected to login")
			}
			return nil
		})
	ctx := context.Background()
	logins := 0

	_, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)

	valid = false
	source, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceLogin, source)
	assert.Equal(t, 2, logins)
}

func TestEnsureLoginFailure(t *testing.T) {
	jar := &memoryJar{}
	f := NewFixture(newStorage(t, t.TempDir()), jar, "", 0, arbor.NewLogger())

	_, err := f.Ensure(context.Background(), "s", func(context.Context) error { return errors.New("bad password") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login for session s")

	_, ok := f.Cached("s")
	assert.False(t, ok)
}

func TestEnsureRequiresCookies(t *testing.T) {
	jar := &memoryJar{}
	f := NewFixture(newStorage(t, t.TempDir()), jar, "", 0, arbor.NewLogger())

	_, err := f.Ensure(context.Background(), "s", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cookies")
}

func TestInvalidate(t *testing.T) {
	jar := &memoryJar{}
	storage := newStorage(t, t.TempDir())
	f := NewFixture(storage, jar, "", 0, arbor.NewLogger())
	ctx := context.Background()
	logins := 0

	_, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	require.NoError(t, f.Invalidate(ctx, "s"))

	_, err = storage.GetSession(ctx, "s")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)

	source, err := f.Ensure(ctx, "s", jar.login(&logins))
	require.NoError(t, err)
	assert.Equal(t, SourceLogin, source)
}
