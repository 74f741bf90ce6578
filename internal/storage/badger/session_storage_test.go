package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
	"github.com/ternarybob/hubcheck/internal/interfaces"
	"github.com/ternarybob/hubcheck/internal/models"
)

func openTestDB(t *testing.T, config *common.SessionConfig) *BadgerDB {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testSession(name string) *models.Session {
	return &models.Session{
		Name:   name,
		Origin: "https://app.example.com",
		Cookies: []models.Cookie{
			{Name: "sid", Value: "abc", Domain: "app.example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: "Lax"},
			{Name: "idp", Value: "xyz", Domain: "login.example.com", Path: "/", Expires: 4102444800},
		},
		CreatedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
}

func TestSessionStorageRoundTrip(t *testing.T) {
	db := openTestDB(t, &common.SessionConfig{Path: t.TempDir()})
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	want := testSession("brighthr-session")
	require.NoError(t, storage.SaveSession(ctx, want))

	got, err := storage.GetSession(ctx, "brighthr-session")
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Origin, got.Origin)
	assert.Equal(t, want.Cookies, got.Cookies)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestSessionStorageUpsertReplaces(t *testing.T) {
	db := openTestDB(t, &common.SessionConfig{Path: t.TempDir()})
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	s := testSession("a")
	require.NoError(t, storage.SaveSession(ctx, s))
	s.Cookies = s.Cookies[:1]
	require.NoError(t, storage.SaveSession(ctx, s))

	got, err := storage.GetSession(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got.Cookies, 1)
}

func TestSessionStorageNotFound(t *testing.T) {
	db := openTestDB(t, &common.SessionConfig{Path: t.TempDir()})
	storage := NewSessionStorage(db, arbor.NewLogger())

	_, err := storage.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func TestSessionStorageRequiresName(t *testing.T) {
	db := openTestDB(t, &common.SessionConfig{Path: t.TempDir()})
	storage := NewSessionStorage(db, arbor.NewLogger())

	assert.Error(t, storage.SaveSession(context.Background(), &models.Session{}))
}

func TestSessionStorageListDeleteClear(t *testing.T) {
	db := openTestDB(t, &common.SessionConfig{Path: t.TempDir()})
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, storage.SaveSession(ctx, testSession(name)))
	}

	sessions, err := storage.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "a", sessions[0].Name)
	assert.Equal(t, "c", sessions[2].Name)

	require.NoError(t, storage.DeleteSession(ctx, "b"))
	require.NoError(t, storage.DeleteSession(ctx, "b"), "deleting twice is not an error")

	removed, err := storage.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	sessions, err = storage.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.SessionConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, NewSessionStorage(db, arbor.NewLogger()).SaveSession(ctx, testSession("kept")))
	require.NoError(t, db.Close())

	reopened := openTestDB(t, &common.SessionConfig{Path: dir})
	_, err = NewSessionStorage(reopened, arbor.NewLogger()).GetSession(ctx, "kept")
	assert.NoError(t, err)
}

func TestResetDropsSessions(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.SessionConfig{Path: dir})
	require.NoError(t, err)
	require.NoError(t, NewSessionStorage(db, arbor.NewLogger()).SaveSession(ctx, testSession("dropped")))
	require.NoError(t, db.Close())

	reopened := openTestDB(t, &common.SessionConfig{Path: dir, Reset: true})
	_, err = NewSessionStorage(reopened, arbor.NewLogger()).GetSession(ctx, "dropped")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}
