package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	callsdomain "github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	callservice "github.com/teamdesk-hq/teamdesk-backend/internal/calls/service"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	streamrepo "github.com/teamdesk-hq/teamdesk-backend/internal/stream/repository"
	streamservice "github.com/teamdesk-hq/teamdesk-backend/internal/stream/service"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// fakeStreamAPI is an httptest server standing in for the Stream REST
// API. It records which rooms were created and ended.
type fakeStreamAPI struct {
	mu      sync.Mutex
	created []string
	ended   []string
	failAll bool
}

func (f *fakeStreamAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failAll {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"induced failure"}`))
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/mark_ended"):
			parts := strings.Split(r.URL.Path, "/")
			f.ended = append(f.ended, parts[len(parts)-2])
		case strings.Contains(r.URL.Path, "/video/call/"):
			parts := strings.Split(r.URL.Path, "/")
			f.created = append(f.created, parts[len(parts)-1])
		}
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeStreamAPI) endedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ended))
	copy(out, f.ended)
	return out
}

type memUserRepo struct {
	users map[string]*teamdomain.User
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*teamdomain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *memUserRepo) GetByFirebaseUID(_ context.Context, uid string) (*teamdomain.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			copied := *u
			return &copied, nil
		}
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*teamdomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*teamdomain.User, error) {
	var out []*teamdomain.User
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) ListPeopleManagers(_ context.Context) ([]*teamdomain.User, error) {
	return nil, nil
}

func (r *memUserRepo) Insert(_ context.Context, u *teamdomain.User) error  { return nil }
func (r *memUserRepo) Update(_ context.Context, u *teamdomain.User) error { return nil }
func (r *memUserRepo) SetActive(context.Context, string, bool) error      { return nil }
func (r *memUserRepo) RecordLogin(context.Context, string) error          { return nil }
func (r *memUserRepo) MigratePeopleManagerFlags(context.Context) (int64, error) {
	return 0, nil
}
func (r *memUserRepo) FixRoleCapitalization(context.Context) (int64, error) { return 0, nil }

type memCallRepo struct {
	mu        sync.Mutex
	calls     map[string]*callsdomain.Call
	nextID    int
	insertErr error
}

func (r *memCallRepo) Insert(_ context.Context, c *callsdomain.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.nextID++
	c.ID = fmt.Sprintf("local-%d", r.nextID)
	c.CreatedAt = time.Now()
	copied := *c
	r.calls[c.ID] = &copied
	return nil
}

func (r *memCallRepo) GetByID(_ context.Context, id string) (*callsdomain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calls[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, callsdomain.ErrCallNotFound
}

func (r *memCallRepo) GetByStreamCallID(_ context.Context, streamCallID string) (*callsdomain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.StreamCallID == streamCallID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, callsdomain.ErrCallNotFound
}

func (r *memCallRepo) ListForUser(_ context.Context, userID string, status *callsdomain.CallStatus) ([]*callsdomain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*callsdomain.Call
	for _, c := range r.calls {
		if !c.HasStanding(userID) {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memCallRepo) UpdateStatus(_ context.Context, id string, upd *callsdomain.StatusUpdate, startTime *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return callsdomain.ErrCallNotFound
	}
	if c.Status.Terminal() {
		return callsdomain.ErrInvalidTransition
	}
	c.Status = upd.Status
	if startTime != nil {
		c.StartTime = startTime
	}
	if upd.EndTime != nil {
		c.EndTime = upd.EndTime
	}
	return nil
}

func (r *memCallRepo) AppendParticipant(_ context.Context, id, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return callsdomain.ErrCallNotFound
	}
	c.ParticipantIDs = append(c.ParticipantIDs, participantID)
	return nil
}

func (r *memCallRepo) ReplaceMetadata(_ context.Context, id string, md *callsdomain.CallMetadata) error {
	return nil
}

func (r *memCallRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, id)
	return nil
}

type fixture struct {
	svc      *streamservice.StreamService
	sessions *streamrepo.SessionRepository
	callRepo *memCallRepo
	api      *fakeStreamAPI
	redis    *miniredis.Miniredis
}

func setup(t *testing.T) *fixture {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	api := &fakeStreamAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	name := "Alice"
	users := &memUserRepo{users: map[string]*teamdomain.User{
		"alice": {ID: "alice", Email: "alice@example.com", Name: &name, IsActive: true},
		"bob":   {ID: "bob", Email: "bob@example.com", IsActive: true},
	}}
	callRepo := &memCallRepo{calls: make(map[string]*callsdomain.Call)}

	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := streamrepo.NewSessionRepository(client)
	calls := callservice.NewCallService(callRepo, users)
	svc := streamservice.NewStreamService(
		stream.NewClient("key123", "secret456", srv.URL),
		sessions, calls, users, log,
	)

	return &fixture{svc: svc, sessions: sessions, callRepo: callRepo, api: api, redis: mr}
}

func TestMintAccessToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	grant, err := f.svc.MintAccessToken(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", grant.UserID)
	assert.Equal(t, "key123", grant.APIKey)

	parsed, err := jwt.Parse(grant.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("secret456"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["user_id"])

	// Session recorded, then dropped on teardown.
	session, err := f.sessions.GetSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.UserID)

	require.NoError(t, f.svc.TeardownSession(ctx, "alice"))
	_, err = f.sessions.GetSession(ctx, "alice")
	assert.ErrorIs(t, err, streamrepo.ErrSessionNotFound)
}

func TestCreateRemoteCallHappyPath(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
		CallType:       callsdomain.TypeOneOnOne,
		ParticipantIDs: []string{"bob"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CallID)
	assert.Regexp(t, `^call-\d+-[a-z0-9]{7}$`, result.StreamCallID)

	// Local record points at the remote room.
	call, err := f.callRepo.GetByStreamCallID(ctx, result.StreamCallID)
	require.NoError(t, err)
	assert.Equal(t, callsdomain.StatusActive, call.Status)

	// Ledger is clean after a successful create.
	entries, err := f.sessions.ListOrphanCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateRemoteCallLocalFailureLeavesLedgerEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.callRepo.insertErr = fmt.Errorf("db down")

	_, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
		CallType: callsdomain.TypeOneOnOne,
	})
	require.Error(t, err)

	entries, err := f.sessions.ListOrphanCandidates(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The sweep ends the orphaned remote room and clears the ledger.
	f.callRepo.insertErr = nil
	swept, err := f.svc.SweepOrphans(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, []string{entries[0].StreamCallID}, f.api.endedCalls())

	entries, err = f.sessions.ListOrphanCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateRemoteCallRemoteFailureClearsLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.api.failAll = true

	_, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
		CallType: callsdomain.TypeOneOnOne,
	})
	require.Error(t, err)

	// No remote room was created, so nothing is left to sweep.
	entries, err := f.sessions.ListOrphanCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSweepSkipsCallsWithLocalRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
		CallType: callsdomain.TypeOneOnOne,
	})
	require.NoError(t, err)

	// Simulate a clear step that failed after successful persistence.
	require.NoError(t, f.sessions.RecordOrphanCandidate(ctx, result.StreamCallID))

	swept, err := f.svc.SweepOrphans(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Empty(t, f.api.endedCalls())

	// The stale entry was cleared without ending the live call.
	entries, err := f.sessions.ListOrphanCandidates(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEndRemoteCall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
		CallType:       callsdomain.TypeOneOnOne,
		ParticipantIDs: []string{"bob"},
	})
	require.NoError(t, err)

	t.Run("participant ends the call", func(t *testing.T) {
		require.NoError(t, f.svc.EndRemoteCall(ctx, "bob", result.CallID))

		call, err := f.callRepo.GetByID(ctx, result.CallID)
		require.NoError(t, err)
		assert.Equal(t, callsdomain.StatusEnded, call.Status)
		assert.NotNil(t, call.EndTime)
		assert.Contains(t, f.api.endedCalls(), result.StreamCallID)
	})

	t.Run("local record advances even when the remote end fails", func(t *testing.T) {
		second, err := f.svc.CreateRemoteCall(ctx, "alice", &callsdomain.CreateCallRequest{
			CallType: callsdomain.TypeOneOnOne,
		})
		require.NoError(t, err)

		f.api.failAll = true
		defer func() { f.api.failAll = false }()

		require.NoError(t, f.svc.EndRemoteCall(ctx, "alice", second.CallID))

		call, err := f.callRepo.GetByID(ctx, second.CallID)
		require.NoError(t, err)
		assert.Equal(t, callsdomain.StatusEnded, call.Status)
	})
}

func TestEndRemoteCallByStreamID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("ends an arbitrary remote room", func(t *testing.T) {
		res := f.svc.EndRemoteCallByStreamID(ctx, "call-999-orphan1")
		assert.True(t, res.Success)
		assert.Contains(t, res.Message, "call-999-orphan1")
	})

	t.Run("reports failure without an error", func(t *testing.T) {
		f.api.failAll = true
		defer func() { f.api.failAll = false }()

		res := f.svc.EndRemoteCallByStreamID(ctx, "call-999-orphan2")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "Failed to end call")
	})
}

func TestMintAccessTokenGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.MintAccessToken(ctx, "")
	assert.ErrorIs(t, err, teamdomain.ErrNotAuthenticated)

	_, err = f.svc.MintAccessToken(ctx, "ghost")
	assert.ErrorIs(t, err, teamdomain.ErrUserNotFound)
}

func TestJSONShapeOfTokenGrant(t *testing.T) {
	f := setup(t)

	grant, err := f.svc.MintAccessToken(context.Background(), "alice")
	require.NoError(t, err)

	raw, err := json.Marshal(grant)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "token")
	assert.Contains(t, decoded, "user_id")
	assert.Contains(t, decoded, "api_key")
}
