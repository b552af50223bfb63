package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	callsdomain "github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	callservice "github.com/teamdesk-hq/teamdesk-backend/internal/calls/service"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream/repository"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// StreamService keeps the remote call rooms in sync with the local call
// records and mints per-user access credentials.
type StreamService struct {
	client   *stream.Client
	sessions *repository.SessionRepository
	calls    *callservice.CallService
	users    teamdomain.UserRepository
	log      *logrus.Logger
}

func NewStreamService(
	client *stream.Client,
	sessions *repository.SessionRepository,
	calls *callservice.CallService,
	users teamdomain.UserRepository,
	log *logrus.Logger,
) *StreamService {
	return &StreamService{
		client:   client,
		sessions: sessions,
		calls:    calls,
		users:    users,
		log:      log,
	}
}

// TokenGrant is what the browser SDK needs to join calls.
type TokenGrant struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

// MintAccessToken upserts the caller's identity with the transport
// provider and returns a bearer token. The caller must be active.
// Minting replaces any previous session for the same identity, so one
// transport session exists per user at a time.
func (s *StreamService) MintAccessToken(ctx context.Context, callerID string) (*TokenGrant, error) {
	if callerID == "" {
		return nil, teamdomain.ErrNotAuthenticated
	}
	if !s.client.Configured() {
		return nil, stream.ErrNotConfigured
	}

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, teamdomain.ErrUserInactive
	}

	if err := s.client.UpsertUser(ctx, user.ID, user.DisplayName(), "user"); err != nil {
		return nil, fmt.Errorf("upsert stream user: %w", err)
	}

	token, err := s.client.CreateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("mint stream token: %w", err)
	}

	if err := s.sessions.PutSession(ctx, &repository.Session{
		UserID:       user.ID,
		StreamUserID: user.ID,
	}); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).
			Warn("failed to record transport session")
	}

	return &TokenGrant{
		Token:  token,
		UserID: user.ID,
		APIKey: s.client.APIKey(),
	}, nil
}

// TeardownSession drops the caller's transport session, to be invoked
// on sign-out or identity change.
func (s *StreamService) TeardownSession(ctx context.Context, callerID string) error {
	if callerID == "" {
		return teamdomain.ErrNotAuthenticated
	}
	return s.sessions.DropSession(ctx, callerID)
}

// CreateRemoteCallResult pairs the local record id with the remote room id.
type CreateRemoteCallResult struct {
	CallID       string `json:"call_id"`
	StreamCallID string `json:"stream_call_id"`
}

// CreateRemoteCall creates the remote room, then persists the local
// call record pointing at it. The two writes are not transactional:
// the remote id is marked in the orphan ledger before the local write
// and cleared after, so a failed local write leaves a sweepable entry
// instead of an untracked remote room.
func (s *StreamService) CreateRemoteCall(ctx context.Context, callerID string, req *callsdomain.CreateCallRequest) (*CreateRemoteCallResult, error) {
	if callerID == "" {
		return nil, teamdomain.ErrNotAuthenticated
	}
	if !s.client.Configured() {
		return nil, stream.ErrNotConfigured
	}

	streamCallID := newStreamCallID()

	if err := s.sessions.RecordOrphanCandidate(ctx, streamCallID); err != nil {
		s.log.WithError(err).WithField("stream_call_id", streamCallID).
			Warn("failed to record orphan candidate")
	}

	opts := stream.RemoteCallOptions{
		CreatedByID: callerID,
		Custom:      metadataToCustom(req.Metadata),
	}
	if req.ScheduledTime != nil {
		startsAt := time.UnixMilli(*req.ScheduledTime)
		opts.StartsAt = &startsAt
	}

	if err := s.client.GetOrCreateCall(ctx, streamCallID, opts); err != nil {
		// Remote room was never created; nothing to sweep.
		if clearErr := s.sessions.ClearOrphanCandidate(ctx, streamCallID); clearErr != nil {
			s.log.WithError(clearErr).Warn("failed to clear orphan candidate")
		}
		return nil, fmt.Errorf("create stream call: %w", err)
	}

	req.StreamCallID = streamCallID
	call, err := s.calls.CreateCall(ctx, callerID, req)
	if err != nil {
		// Remote room exists with no local record. The ledger entry
		// stays so the sweep (or the admin end-by-id utility) can
		// clean it up.
		s.log.WithError(err).WithField("stream_call_id", streamCallID).
			Warn("local persistence failed after remote call creation")
		return nil, err
	}

	if err := s.sessions.ClearOrphanCandidate(ctx, streamCallID); err != nil {
		s.log.WithError(err).Warn("failed to clear orphan candidate")
	}

	return &CreateRemoteCallResult{
		CallID:       call.ID,
		StreamCallID: streamCallID,
	}, nil
}

// RemoteCallRef identifies the remote room for a local call.
type RemoteCallRef struct {
	StreamCallID string               `json:"stream_call_id"`
	CallType     callsdomain.CallType `json:"call_type"`
}

// GetRemoteCall resolves the remote room reference for a call the
// caller has standing on.
func (s *StreamService) GetRemoteCall(ctx context.Context, callerID, callID string) (*RemoteCallRef, error) {
	call, err := s.calls.GetCall(ctx, callerID, callID)
	if err != nil {
		return nil, err
	}
	return &RemoteCallRef{
		StreamCallID: call.StreamCallID,
		CallType:     call.CallType,
	}, nil
}

// EndRemoteCall ends the remote room and advances the local record to
// ended. A remote failure is logged and swallowed: the local ledger
// always reaches ended so the UI is never stuck on a dead call.
func (s *StreamService) EndRemoteCall(ctx context.Context, callerID, callID string) error {
	call, err := s.calls.GetCall(ctx, callerID, callID)
	if err != nil {
		return err
	}

	if err := s.client.EndCall(ctx, call.StreamCallID); err != nil {
		s.log.WithError(err).WithField("stream_call_id", call.StreamCallID).
			Warn("failed to end remote call; advancing local status anyway")
	}

	now := time.Now().UnixMilli()
	return s.calls.UpdateCallStatus(ctx, callerID, callID, &callsdomain.StatusUpdate{
		Status:  callsdomain.StatusEnded,
		EndTime: &now,
	})
}

// EndResult reports the outcome of an end-by-remote-id request.
type EndResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EndRemoteCallByStreamID is the escape hatch for orphaned remote rooms
// that have no local record. It reports failure instead of returning an
// error so cleanup scripts can keep going.
func (s *StreamService) EndRemoteCallByStreamID(ctx context.Context, streamCallID string) *EndResult {
	if !s.client.Configured() {
		return &EndResult{Success: false, Message: "Stream API credentials not configured"}
	}

	if err := s.client.EndCall(ctx, streamCallID); err != nil {
		return &EndResult{
			Success: false,
			Message: fmt.Sprintf("Failed to end call: %v", err),
		}
	}

	if err := s.sessions.ClearOrphanCandidate(ctx, streamCallID); err != nil {
		s.log.WithError(err).Warn("failed to clear orphan candidate")
	}

	return &EndResult{
		Success: true,
		Message: fmt.Sprintf("Successfully ended Stream call: %s", streamCallID),
	}
}

// SweepOrphans ends every remote room whose ledger entry is older than
// minAge and still has no local call record. Returns how many rooms
// were cleaned up.
func (s *StreamService) SweepOrphans(ctx context.Context, minAge time.Duration) (int, error) {
	entries, err := s.sessions.ListOrphanCandidates(ctx, minAge)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, entry := range entries {
		// A ledger entry with a local record means only the clear step
		// failed earlier; the call is live and must not be ended.
		if _, err := s.calls.FindByStreamCallID(ctx, entry.StreamCallID); err == nil {
			if clearErr := s.sessions.ClearOrphanCandidate(ctx, entry.StreamCallID); clearErr != nil {
				s.log.WithError(clearErr).Warn("failed to clear orphan candidate")
			}
			continue
		} else if !errors.Is(err, callsdomain.ErrCallNotFound) {
			return swept, err
		}

		res := s.EndRemoteCallByStreamID(ctx, entry.StreamCallID)
		if res.Success {
			swept++
			continue
		}
		s.log.WithField("stream_call_id", entry.StreamCallID).
			WithField("message", res.Message).
			Warn("orphan sweep could not end remote call")
	}
	return swept, nil
}

func metadataToCustom(md *callsdomain.CallMetadata) map[string]any {
	if md == nil {
		return nil
	}
	custom := make(map[string]any)
	if md.Title != nil {
		custom["title"] = *md.Title
	}
	if md.ClientName != nil {
		custom["clientName"] = *md.ClientName
	}
	if md.ClientID != nil {
		custom["clientId"] = *md.ClientID
	}
	if md.Notes != nil {
		custom["notes"] = *md.Notes
	}
	return custom
}

const suffixCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// newStreamCallID generates a globally-unique remote call id from a
// millisecond timestamp and a 7-character random suffix.
func newStreamCallID() string {
	suffix := make([]byte, 7)
	if _, err := rand.Read(suffix); err == nil {
		for i := range suffix {
			suffix[i] = suffixCharset[int(suffix[i])%len(suffixCharset)]
		}
		return fmt.Sprintf("call-%d-%s", time.Now().UnixMilli(), suffix)
	}
	return fmt.Sprintf("call-%d", time.Now().UnixNano())
}
