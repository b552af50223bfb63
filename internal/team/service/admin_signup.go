package service

import (
	"context"
	"errors"

	"github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// AdminSignupService handles the out-of-band admin bootstrap: a signup
// gated by a shared secret from server configuration. The Firebase
// account is created client-side; this flow only validates the secret
// and writes the admin profile row.
type AdminSignupService struct {
	users      domain.UserRepository
	secretCode string
}

func NewAdminSignupService(users domain.UserRepository, secretCode string) *AdminSignupService {
	return &AdminSignupService{
		users:      users,
		secretCode: secretCode,
	}
}

// ValidateSecretCode checks the supplied code against configuration.
// Missing configuration is a hard failure, never a silent pass.
func (s *AdminSignupService) ValidateSecretCode(code string) error {
	if s.secretCode == "" {
		return domain.ErrNotConfigured
	}
	if code != s.secretCode {
		return domain.ErrSecretMismatch
	}
	return nil
}

// CompleteAdminProfile creates or updates the caller's own profile with
// the admin defaults after a secret-validated signup.
func (s *AdminSignupService) CompleteAdminProfile(ctx context.Context, firebaseUID, email, firstName, lastName string) (*domain.User, error) {
	if firebaseUID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	fullName := firstName + " " + lastName

	existing, err := s.users.GetByFirebaseUID(ctx, firebaseUID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	if existing != nil {
		existing.FirstName = &firstName
		existing.LastName = &lastName
		existing.Name = &fullName
		existing.Role = domain.RoleAdmin
		existing.IsPeopleManager = false
		existing.TeamLead = nil
		existing.IsActive = true
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	user := &domain.User{
		FirebaseUID:     firebaseUID,
		Email:           email,
		Name:            &fullName,
		FirstName:       &firstName,
		LastName:        &lastName,
		Role:            domain.RoleAdmin,
		IsPeopleManager: false,
		TeamLead:        nil,
		IsActive:        true,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
