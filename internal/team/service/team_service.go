package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// TeamService implements the team-directory operations and the
// authorization checks gating them.
type TeamService struct {
	users    domain.UserRepository
	accounts domain.AccountProvider
	log      *logrus.Logger
}

func NewTeamService(users domain.UserRepository, accounts domain.AccountProvider, log *logrus.Logger) *TeamService {
	return &TeamService{
		users:    users,
		accounts: accounts,
		log:      log,
	}
}

// ResolveIdentity maps a Firebase UID to the caller's directory record.
func (s *TeamService) ResolveIdentity(ctx context.Context, firebaseUID string) (*domain.User, error) {
	if firebaseUID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.users.GetByFirebaseUID(ctx, firebaseUID)
}

// ResolveUserID maps a Firebase UID to the caller's directory user id.
func (s *TeamService) ResolveUserID(ctx context.Context, firebaseUID string) (string, error) {
	u, err := s.ResolveIdentity(ctx, firebaseUID)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// RecordLogin stamps the caller's last-login time. Best-effort.
func (s *TeamService) RecordLogin(ctx context.Context, userID string) error {
	return s.users.RecordLogin(ctx, userID)
}

// CurrentUser returns the caller's record, or ErrUserNotFound.
func (s *TeamService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.users.GetByID(ctx, userID)
}

// CanAccessTeamPage is the capability query backing the team page.
// An unresolvable caller answers false, never an error.
func (s *TeamService) CanAccessTeamPage(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return domain.CanAccessTeamPage(u)
}

// IsAdmin is the capability query backing admin-only UI affordances.
func (s *TeamService) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return domain.IsAdmin(u)
}

// ListUsers returns the whole directory. Only admins, ops admins, and
// people managers may call it.
func (s *TeamService) ListUsers(ctx context.Context, callerID string) ([]*domain.User, error) {
	caller, err := s.requireCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessTeamPage(caller) {
		return nil, domain.ErrUnauthorized
	}
	return s.users.List(ctx)
}

// ListTeamLeads returns the users flagged as people managers, for the
// team-lead picker. Any authenticated caller may use it.
func (s *TeamService) ListTeamLeads(ctx context.Context, callerID string) ([]domain.TeamLeadSummary, error) {
	if _, err := s.requireCaller(ctx, callerID); err != nil {
		return nil, err
	}

	managers, err := s.users.ListPeopleManagers(ctx)
	if err != nil {
		return nil, err
	}

	leads := make([]domain.TeamLeadSummary, 0, len(managers))
	for _, m := range managers {
		leads = append(leads, domain.TeamLeadSummary{
			ID:        m.ID,
			Name:      m.Name,
			FirstName: m.FirstName,
			LastName:  m.LastName,
		})
	}
	return leads, nil
}

// CreateUser provisions both the identity-provider account and the
// directory row. Admin only. If the row insert fails after the account
// was created, the account is deleted so the two stores stay paired.
func (s *TeamService) CreateUser(ctx context.Context, callerID string, req *domain.CreateUserRequest) (*domain.User, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	if len(req.Password) < 8 {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	fullName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	uid, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, fullName)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	user := &domain.User{
		FirebaseUID:     uid,
		Email:           req.Email,
		Name:            &fullName,
		FirstName:       &req.FirstName,
		LastName:        &req.LastName,
		Role:            domain.CanonicalRole(req.Role),
		IsPeopleManager: req.IsPeopleManager,
		TeamLead:        req.TeamLead,
		IsActive:        req.IsActive,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if delErr := s.accounts.DeleteAccount(ctx, uid); delErr != nil {
			s.log.WithError(delErr).WithField("uid", uid).
				Warn("failed to clean up identity account after insert failure")
		}
		return nil, err
	}

	return user, nil
}

// UpdateUser replaces the directory fields of the target user. Admin only.
func (s *TeamService) UpdateUser(ctx context.Context, callerID, targetID string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(target.Email, req.Email) {
		if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing.ID != targetID {
			return nil, domain.ErrEmailTaken
		} else if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	fullName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	target.Email = req.Email
	target.Name = &fullName
	target.FirstName = &req.FirstName
	target.LastName = &req.LastName
	target.Role = domain.CanonicalRole(req.Role)
	target.IsPeopleManager = req.IsPeopleManager
	target.TeamLead = req.TeamLead
	target.IsActive = req.IsActive

	if err := s.users.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// DeactivateUser deactivates the target user. Admin only; admins cannot
// deactivate themselves. The identity-provider account is disabled
// best-effort so a deactivated user cannot keep signing in.
func (s *TeamService) DeactivateUser(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if callerID == targetID {
		return domain.ErrSelfDeactivate
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, targetID, false); err != nil {
		return err
	}

	if target.FirebaseUID != "" {
		if err := s.accounts.SetAccountDisabled(ctx, target.FirebaseUID, true); err != nil {
			s.log.WithError(err).WithField("uid", target.FirebaseUID).
				Warn("failed to disable identity account")
		}
	}
	return nil
}

// ReactivateUser reactivates the target user. Admin only.
func (s *TeamService) ReactivateUser(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, targetID, true); err != nil {
		return err
	}

	if target.FirebaseUID != "" {
		if err := s.accounts.SetAccountDisabled(ctx, target.FirebaseUID, false); err != nil {
			s.log.WithError(err).WithField("uid", target.FirebaseUID).
				Warn("failed to re-enable identity account")
		}
	}
	return nil
}

// MigrateLegacyFlags runs the one-time schema cleanup passes.
func (s *TeamService) MigrateLegacyFlags(ctx context.Context) (flags, roles int64, err error) {
	flags, err = s.users.MigratePeopleManagerFlags(ctx)
	if err != nil {
		return 0, 0, err
	}
	roles, err = s.users.FixRoleCapitalization(ctx)
	if err != nil {
		return flags, 0, err
	}
	return flags, roles, nil
}

func (s *TeamService) requireCaller(ctx context.Context, callerID string) (*domain.User, error) {
	if callerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, err
	}
	return caller, nil
}

func (s *TeamService) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.requireCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if !domain.IsAdmin(caller) {
		return domain.ErrUnauthorized
	}
	return nil
}
