package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "stream:session:" // Active transport session per user: stream:session:{user_id}
	orphanKeyPrefix  = "stream:orphan:"  // Remote rooms created but not yet persisted locally: stream:orphan:{stream_call_id}
	orphanSetKey     = "stream:orphans"  // Set of orphan-candidate stream call ids

	sessionTTL = 24 * time.Hour
	orphanTTL  = 7 * 24 * time.Hour
)

var ErrSessionNotFound = errors.New("transport session not found")

// Session records the one live transport session a user identity holds.
// Minting a new token replaces it; deactivation or teardown removes it.
// SessionID distinguishes successive sessions of the same user in logs.
type Session struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	StreamUserID string    `json:"stream_user_id"`
	MintedAt     time.Time `json:"minted_at"`
}

// OrphanEntry marks a remote room created before local persistence
// succeeded. Entries are cleared once the local record exists; whatever
// remains is sweepable garbage on the provider side.
type OrphanEntry struct {
	StreamCallID string    `json:"stream_call_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionRepository tracks transport sessions and the orphaned-room
// ledger in Redis.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// PutSession stores the user's current transport session, replacing any
// previous one.
func (r *SessionRepository) PutSession(ctx context.Context, s *Session) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if s.MintedAt.IsZero() {
		s.MintedAt = time.Now()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.sessionKey(s.UserID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession fetches the user's current transport session.
func (r *SessionRepository) GetSession(ctx context.Context, userID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// DropSession tears down the user's transport session.
func (r *SessionRepository) DropSession(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}

// RecordOrphanCandidate marks a freshly created remote room before the
// local write is attempted.
func (r *SessionRepository) RecordOrphanCandidate(ctx context.Context, streamCallID string) error {
	entry := OrphanEntry{
		StreamCallID: streamCallID,
		CreatedAt:    time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal orphan entry: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.orphanKey(streamCallID), data, orphanTTL)
	pipe.SAdd(ctx, orphanSetKey, streamCallID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record orphan candidate: %w", err)
	}
	return nil
}

// ClearOrphanCandidate removes the mark once the local record exists.
func (r *SessionRepository) ClearOrphanCandidate(ctx context.Context, streamCallID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.orphanKey(streamCallID))
	pipe.SRem(ctx, orphanSetKey, streamCallID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear orphan candidate: %w", err)
	}
	return nil
}

// ListOrphanCandidates returns ledger entries older than minAge.
// Entries whose detail key expired are dropped from the set as a side
// effect.
func (r *SessionRepository) ListOrphanCandidates(ctx context.Context, minAge time.Duration) ([]OrphanEntry, error) {
	ids, err := r.client.SMembers(ctx, orphanSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list orphan candidates: %w", err)
	}

	cutoff := time.Now().Add(-minAge)
	var out []OrphanEntry
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.orphanKey(id)).Result()
		if errors.Is(err, redis.Nil) {
			r.client.SRem(ctx, orphanSetKey, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get orphan entry: %w", err)
		}

		var entry OrphanEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			continue
		}
		if entry.CreatedAt.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *SessionRepository) sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

func (r *SessionRepository) orphanKey(streamCallID string) string {
	return orphanKeyPrefix + streamCallID
}
