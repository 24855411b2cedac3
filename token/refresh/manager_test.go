package refresh_test

import (
	"sync"
	"testing"
	"time"

	"github.com/agrinos/plantclassifier/token/refresh"
	refreshrepofake "github.com/agrinos/plantclassifier/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("create stores only the hash", func(t *testing.T) {
		repo := refreshrepofake.NewFakeRefreshTokenRepo()
		m := refresh.NewManager(repo, time.Hour)

		tok, err := m.Create("u-1")
		require.NoError(t, err)
		require.Len(t, tok, 64)

		stored, err := repo.List(0, 10)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		require.Equal(t, refresh.Hash(tok), stored[0].Hash)
		require.NotEqual(t, tok, stored[0].Hash)
		require.Equal(t, "u-1", stored[0].UserID)
	})

	t.Run("rotate consumes the token", func(t *testing.T) {
		m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
		tok, err := m.Create("u-1")
		require.NoError(t, err)

		userID, next, err := m.Rotate(tok)
		require.NoError(t, err)
		require.Equal(t, "u-1", userID)
		require.NotEqual(t, tok, next)

		_, _, err = m.Rotate(tok)
		require.ErrorIs(t, err, refresh.ErrInvalidToken)

		_, _, err = m.Rotate(next)
		require.NoError(t, err)
	})

	t.Run("concurrent rotation succeeds once", func(t *testing.T) {
		m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
		tok, err := m.Create("u-1")
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := m.Rotate(tok); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, successes)
	})

	t.Run("expired", func(t *testing.T) {
		m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Minute)
		tok, err := m.Create("u-1")
		require.NoError(t, err)

		refresh.NowTimeFunc = func() time.Time { return time.Now().Add(time.Hour) }
		defer func() { refresh.NowTimeFunc = time.Now }()

		_, _, err = m.Rotate(tok)
		require.ErrorIs(t, err, refresh.ErrExpiredToken)
	})

	t.Run("revoke user", func(t *testing.T) {
		repo := refreshrepofake.NewFakeRefreshTokenRepo()
		m := refresh.NewManager(repo, time.Hour)
		a, err := m.Create("u-1")
		require.NoError(t, err)
		_, err = m.Create("u-1")
		require.NoError(t, err)
		other, err := m.Create("u-2")
		require.NoError(t, err)

		require.NoError(t, m.RevokeUser("u-1"))

		_, _, err = m.Rotate(a)
		require.ErrorIs(t, err, refresh.ErrInvalidToken)
		userID, _, err := m.Rotate(other)
		require.NoError(t, err)
		require.Equal(t, "u-2", userID)
	})
}
