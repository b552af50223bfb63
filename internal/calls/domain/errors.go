package domain

import "errors"

var (
	ErrCallNotFound         = errors.New("call not found")
	ErrForbidden            = errors.New("you do not have access to this call")
	ErrInitiatorOnly        = errors.New("only the call initiator can perform this action")
	ErrInvalidStatus        = errors.New("invalid call status")
	ErrInvalidTransition    = errors.New("call status transition not permitted")
	ErrInvalidParticipant   = errors.New("participant does not resolve to an active user")
	ErrDuplicateParticipant = errors.New("participant is already in the call")
	ErrNotDeletable         = errors.New("only cancelled or ended calls can be deleted")
)
