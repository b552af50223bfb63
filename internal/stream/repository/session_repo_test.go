package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	return client, mr
}

func TestSessionRoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	repo := NewSessionRepository(client)
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		err := repo.PutSession(ctx, &Session{
			UserID:       "alice",
			StreamUserID: "alice",
		})
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.UserID)
		assert.NotEmpty(t, got.SessionID)
		assert.False(t, got.MintedAt.IsZero())
	})

	t.Run("minting again replaces", func(t *testing.T) {
		first, err := repo.GetSession(ctx, "alice")
		require.NoError(t, err)

		err = repo.PutSession(ctx, &Session{
			UserID:       "alice",
			StreamUserID: "alice",
			MintedAt:     first.MintedAt.Add(time.Hour),
		})
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.MintedAt.After(first.MintedAt))
	})

	t.Run("drop", func(t *testing.T) {
		require.NoError(t, repo.DropSession(ctx, "alice"))

		_, err := repo.GetSession(ctx, "alice")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetSession(ctx, "nobody")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("session key carries a TTL", func(t *testing.T) {
		require.NoError(t, repo.PutSession(ctx, &Session{UserID: "bob", StreamUserID: "bob"}))
		assert.Greater(t, mr.TTL("stream:session:bob"), time.Duration(0))
	})
}

func TestOrphanLedger(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	repo := NewSessionRepository(client)
	ctx := context.Background()

	t.Run("record then clear", func(t *testing.T) {
		require.NoError(t, repo.RecordOrphanCandidate(ctx, "call-1-aaa"))

		entries, err := repo.ListOrphanCandidates(ctx, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "call-1-aaa", entries[0].StreamCallID)

		require.NoError(t, repo.ClearOrphanCandidate(ctx, "call-1-aaa"))

		entries, err = repo.ListOrphanCandidates(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("min age filters fresh entries", func(t *testing.T) {
		require.NoError(t, repo.RecordOrphanCandidate(ctx, "call-2-bbb"))

		entries, err := repo.ListOrphanCandidates(ctx, time.Hour)
		require.NoError(t, err)
		assert.Empty(t, entries)

		entries, err = repo.ListOrphanCandidates(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		require.NoError(t, repo.ClearOrphanCandidate(ctx, "call-2-bbb"))
	})

	t.Run("expired detail keys are pruned from the set", func(t *testing.T) {
		require.NoError(t, repo.RecordOrphanCandidate(ctx, "call-3-ccc"))

		// Expire the detail key while the set member remains.
		mr.FastForward(8 * 24 * time.Hour)

		entries, err := repo.ListOrphanCandidates(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, entries)

		members, err := client.SMembers(ctx, "stream:orphans").Result()
		require.NoError(t, err)
		assert.NotContains(t, members, "call-3-ccc")
	})
}
