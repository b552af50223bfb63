package domain

import "context"

// UserRepository is the persistence boundary for the team directory.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListPeopleManagers(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	SetActive(ctx context.Context, id string, active bool) error
	RecordLogin(ctx context.Context, id string) error

	// MigratePeopleManagerFlags rewrites legacy string values of the
	// people-manager flag to canonical booleans. Returns rows changed.
	MigratePeopleManagerFlags(ctx context.Context) (int64, error)
	// FixRoleCapitalization rewrites lowercase role labels to their
	// canonical capitalization. Returns rows changed.
	FixRoleCapitalization(ctx context.Context) (int64, error)
}

// AccountProvider is the external identity service the directory rows
// are paired with (Firebase in production).
type AccountProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (uid string, err error)
	DeleteAccount(ctx context.Context, uid string) error
	SetAccountDisabled(ctx context.Context, uid string, disabled bool) error
}
