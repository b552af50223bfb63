package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

type fakeUserRepo struct {
	users      map[string]*domain.User
	insertErr  error
	loginStamp map[string]bool
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:      make(map[string]*domain.User),
		loginStamp: make(map[string]bool),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByFirebaseUID(_ context.Context, uid string) (*domain.User, error) {
	for _, u := range r.users {
		if u.FirebaseUID == uid {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) ListPeopleManagers(ctx context.Context) ([]*domain.User, error) {
	all, _ := r.List(ctx)
	var out []*domain.User
	for _, u := range all {
		if u.IsPeopleManager {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Insert(_ context.Context, u *domain.User) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (r *fakeUserRepo) RecordLogin(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	r.loginStamp[id] = true
	return nil
}

func (r *fakeUserRepo) MigratePeopleManagerFlags(context.Context) (int64, error) { return 0, nil }
func (r *fakeUserRepo) FixRoleCapitalization(context.Context) (int64, error)     { return 0, nil }

// fakeAccounts records identity-provider calls so tests can assert on
// the pairing between directory rows and provider accounts.
type fakeAccounts struct {
	nextUID   int
	created   map[string]string
	deleted   []string
	disabled  map[string]bool
	createErr error
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		created:  make(map[string]string),
		disabled: make(map[string]bool),
	}
}

func (a *fakeAccounts) CreateAccount(_ context.Context, email, password, displayName string) (string, error) {
	if a.createErr != nil {
		return "", a.createErr
	}
	a.nextUID++
	uid := fmt.Sprintf("fb-%d", a.nextUID)
	a.created[uid] = email
	return uid, nil
}

func (a *fakeAccounts) DeleteAccount(_ context.Context, uid string) error {
	if _, ok := a.created[uid]; !ok {
		return errors.New("no such account")
	}
	delete(a.created, uid)
	a.deleted = append(a.deleted, uid)
	return nil
}

func (a *fakeAccounts) SetAccountDisabled(_ context.Context, uid string, disabled bool) error {
	a.disabled[uid] = disabled
	return nil
}
