package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// fakeUserRepo is an in-memory team directory for service tests.
type fakeUserRepo struct {
	users map[string]*teamdomain.User
}

func newFakeUserRepo(users ...*teamdomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*teamdomain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*teamdomain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByFirebaseUID(_ context.Context, uid string) (*teamdomain.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			copied := *u
			return &copied, nil
		}
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*teamdomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, teamdomain.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*teamdomain.User, error) {
	out := make([]*teamdomain.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ListPeopleManagers(ctx context.Context) ([]*teamdomain.User, error) {
	all, _ := r.List(ctx)
	out := all[:0]
	for _, u := range all {
		if u.IsPeopleManager {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Insert(_ context.Context, u *teamdomain.User) error {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *teamdomain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return teamdomain.ErrUserNotFound
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return teamdomain.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) RecordLogin(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return teamdomain.ErrUserNotFound
	}
	return nil
}

func (r *fakeUserRepo) MigratePeopleManagerFlags(context.Context) (int64, error) { return 0, nil }
func (r *fakeUserRepo) FixRoleCapitalization(context.Context) (int64, error)    { return 0, nil }

// fakeCallRepo is an in-memory call store mirroring the SQL guards:
// terminal rows refuse status updates, participant appends refuse
// duplicates.
type fakeCallRepo struct {
	calls  map[string]*domain.Call
	nextID int
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{calls: make(map[string]*domain.Call)}
}

func (r *fakeCallRepo) Insert(_ context.Context, c *domain.Call) error {
	r.nextID++
	c.ID = fmt.Sprintf("call-%d", r.nextID)
	copied := *c
	r.calls[c.ID] = &copied
	return nil
}

func (r *fakeCallRepo) GetByID(_ context.Context, id string) (*domain.Call, error) {
	if c, ok := r.calls[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCallNotFound
}

func (r *fakeCallRepo) GetByStreamCallID(_ context.Context, streamCallID string) (*domain.Call, error) {
	for _, c := range r.calls {
		if c.StreamCallID == streamCallID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.ErrCallNotFound
}

func (r *fakeCallRepo) ListForUser(_ context.Context, userID string, status *domain.CallStatus) ([]*domain.Call, error) {
	var out []*domain.Call
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
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCallRepo) UpdateStatus(_ context.Context, id string, upd *domain.StatusUpdate, startTime *int64) error {
	c, ok := r.calls[id]
	if !ok {
		return domain.ErrCallNotFound
	}
	if c.Status.Terminal() {
		return domain.ErrInvalidTransition
	}
	c.Status = upd.Status
	if startTime != nil {
		c.StartTime = startTime
	}
	if upd.EndTime != nil {
		c.EndTime = upd.EndTime
	}
	if upd.Duration != nil {
		c.Duration = upd.Duration
	}
	if upd.RecordingURL != nil {
		c.RecordingURL = upd.RecordingURL
	}
	return nil
}

func (r *fakeCallRepo) AppendParticipant(_ context.Context, id, participantID string) error {
	c, ok := r.calls[id]
	if !ok {
		return domain.ErrCallNotFound
	}
	if c.HasParticipant(participantID) {
		return domain.ErrDuplicateParticipant
	}
	c.ParticipantIDs = append(c.ParticipantIDs, participantID)
	return nil
}

func (r *fakeCallRepo) ReplaceMetadata(_ context.Context, id string, md *domain.CallMetadata) error {
	c, ok := r.calls[id]
	if !ok {
		return domain.ErrCallNotFound
	}
	c.Metadata = md
	return nil
}

func (r *fakeCallRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.calls[id]; !ok {
		return domain.ErrCallNotFound
	}
	delete(r.calls, id)
	return nil
}
