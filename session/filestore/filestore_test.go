package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agrinos/plantclassifier/session"
	"github.com/agrinos/plantclassifier/session/filestore"
	"github.com/agrinos/plantclassifier/users"
	"github.com/stretchr/testify/require"
)

func testSession(role users.Role) *session.Session {
	return &session.Session{
		User:        session.User{ID: "u-42", Email: "lab@example.com", Name: "Lab", Role: role},
		Credentials: session.Credentials{AccessToken: "acc", RefreshToken: "ref"},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := filestore.New(dir, "http://localhost:8080/api")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "http_localhost_8080", "plant_classifier_session.json"), store.Path())

	_, ok := store.Read(ctx)
	require.False(t, ok)

	for _, role := range users.Roles() {
		s := testSession(role)
		require.NoError(t, store.Write(ctx, s))
		got, ok := store.Read(ctx)
		require.True(t, ok)
		require.Equal(t, s, got)
	}

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_ScopedByOrigin(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := filestore.New(dir, "https://a.example.com/api")
	require.NoError(t, err)
	b, err := filestore.New(dir, "https://b.example.com/api")
	require.NoError(t, err)

	require.NoError(t, a.Write(ctx, testSession(users.RoleFarmer)))
	_, ok := b.Read(ctx)
	require.False(t, ok)
}

func TestStore_CorruptFileReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"tokens":{"accessToken":"x"}`), 0o600))

	s, ok := store.Read(ctx)
	require.False(t, ok)
	require.Nil(t, s)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx), "clearing an empty slot is not an error")
	require.NoError(t, store.Write(ctx, testSession(users.RoleAdmin)))
	require.NoError(t, store.Clear(ctx))

	_, ok := store.Read(ctx)
	require.False(t, ok)
}

func TestStore_RejectsIncompleteSession(t *testing.T) {
	ctx := context.Background()
	store, err := filestore.New(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	err = store.Write(ctx, &session.Session{Credentials: session.Credentials{AccessToken: "a"}})
	require.ErrorIs(t, err, session.ErrIncompleteSession)

	_, statErr := os.Stat(store.Path())
	require.True(t, os.IsNotExist(statErr))
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := filestore.New("", "http://localhost")
	require.Error(t, err)
}
