package domain

import "context"

// CallRepository is the persistence boundary for call records.
type CallRepository interface {
	Insert(ctx context.Context, c *Call) error
	GetByID(ctx context.Context, id string) (*Call, error)
	GetByStreamCallID(ctx context.Context, streamCallID string) (*Call, error)
	// ListForUser returns calls where the user is initiator or
	// participant, optionally filtered by status, newest-created first.
	ListForUser(ctx context.Context, userID string, status *CallStatus) ([]*Call, error)
	// UpdateStatus applies the already-validated transition. The write
	// is guarded so a terminal row is never overwritten, even under a
	// lost race between two mutators.
	UpdateStatus(ctx context.Context, id string, upd *StatusUpdate, startTime *int64) error
	AppendParticipant(ctx context.Context, id, participantID string) error
	ReplaceMetadata(ctx context.Context, id string, md *CallMetadata) error
	Delete(ctx context.Context, id string) error
}
