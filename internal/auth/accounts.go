package auth

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAccounts adapts the Firebase Auth client to the directory's
// AccountProvider boundary.
type FirebaseAccounts struct {
	client *auth.Client
}

func NewFirebaseAccounts(client *auth.Client) *FirebaseAccounts {
	return &FirebaseAccounts{client: client}
}

func (a *FirebaseAccounts) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName).
		EmailVerified(true)

	record, err := a.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("firebase create user: %w", err)
	}
	return record.UID, nil
}

func (a *FirebaseAccounts) DeleteAccount(ctx context.Context, uid string) error {
	if err := a.client.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("firebase delete user: %w", err)
	}
	return nil
}

func (a *FirebaseAccounts) SetAccountDisabled(ctx context.Context, uid string, disabled bool) error {
	params := (&auth.UserToUpdate{}).Disabled(disabled)
	if _, err := a.client.UpdateUser(ctx, uid, params); err != nil {
		return fmt.Errorf("firebase update user: %w", err)
	}
	return nil
}
