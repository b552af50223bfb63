package service

import (
	"context"
	"errors"
	"time"

	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// CallService governs the call lifecycle: who may create, advance,
// amend, and delete call records. Every operation validates fully
// before the first write so a failed call leaves the store unmodified.
type CallService struct {
	calls domain.CallRepository
	users teamdomain.UserRepository
	// now is swappable for tests.
	now func() time.Time
}

func NewCallService(calls domain.CallRepository, users teamdomain.UserRepository) *CallService {
	return &CallService{
		calls: calls,
		users: users,
		now:   time.Now,
	}
}

// CreateCall records a new call. The caller must be an active user and
// every participant must resolve to an existing, active user. A call
// with a scheduled time starts out scheduled; one without starts active
// with startTime set to now. The initiator is never listed as a
// participant, and duplicate participant entries are rejected.
func (s *CallService) CreateCall(ctx context.Context, callerID string, req *domain.CreateCallRequest) (*domain.Call, error) {
	caller, err := s.requireActiveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.ParticipantIDs))
	participants := make([]string, 0, len(req.ParticipantIDs))
	for _, id := range req.ParticipantIDs {
		if id == caller.ID {
			continue
		}
		if seen[id] {
			return nil, domain.ErrDuplicateParticipant
		}
		seen[id] = true

		p, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, teamdomain.ErrUserNotFound) {
				return nil, domain.ErrInvalidParticipant
			}
			return nil, err
		}
		if !p.IsActive {
			return nil, domain.ErrInvalidParticipant
		}
		participants = append(participants, id)
	}

	call := &domain.Call{
		StreamCallID:   req.StreamCallID,
		CallType:       req.CallType,
		InitiatorID:    caller.ID,
		ParticipantIDs: participants,
		ScheduledTime:  req.ScheduledTime,
		Metadata:       req.Metadata,
	}

	if req.ScheduledTime != nil {
		call.Status = domain.StatusScheduled
	} else {
		call.Status = domain.StatusActive
		now := s.now().UnixMilli()
		call.StartTime = &now
	}

	if err := s.calls.Insert(ctx, call); err != nil {
		return nil, err
	}
	return call, nil
}

// UpdateCallStatus applies a lifecycle transition. Initiator or any
// participant may call it. Moving to active stamps startTime if unset;
// moving to ended stamps endTime (now if not supplied) and persists
// duration and recording URL verbatim when given. Terminal calls reject
// every transition.
func (s *CallService) UpdateCallStatus(ctx context.Context, callerID, callID string, upd *domain.StatusUpdate) error {
	if callerID == "" {
		return teamdomain.ErrNotAuthenticated
	}
	if !upd.Status.Valid() {
		return domain.ErrInvalidStatus
	}

	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if !call.HasStanding(callerID) {
		return domain.ErrForbidden
	}
	if !domain.CanTransition(call.Status, upd.Status) {
		return domain.ErrInvalidTransition
	}

	var startTime *int64
	if upd.Status == domain.StatusActive && call.StartTime == nil {
		now := s.now().UnixMilli()
		startTime = &now
	}
	if upd.Status == domain.StatusEnded && upd.EndTime == nil {
		now := s.now().UnixMilli()
		upd.EndTime = &now
	}

	return s.calls.UpdateStatus(ctx, callID, upd, startTime)
}

// AddParticipant invites another user to the call. Initiator only.
func (s *CallService) AddParticipant(ctx context.Context, callerID, callID, participantID string) error {
	if callerID == "" {
		return teamdomain.ErrNotAuthenticated
	}

	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if call.InitiatorID != callerID {
		return domain.ErrInitiatorOnly
	}
	if participantID == call.InitiatorID || call.HasParticipant(participantID) {
		return domain.ErrDuplicateParticipant
	}

	p, err := s.users.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, teamdomain.ErrUserNotFound) {
			return domain.ErrInvalidParticipant
		}
		return err
	}
	if !p.IsActive {
		return domain.ErrInvalidParticipant
	}

	return s.calls.AppendParticipant(ctx, callID, participantID)
}

// UpdateCallMetadata replaces the call's metadata object. Initiator or
// participant only. This is a full replace, not a merge.
func (s *CallService) UpdateCallMetadata(ctx context.Context, callerID, callID string, md *domain.CallMetadata) error {
	if callerID == "" {
		return teamdomain.ErrNotAuthenticated
	}

	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if !call.HasStanding(callerID) {
		return domain.ErrForbidden
	}

	return s.calls.ReplaceMetadata(ctx, callID, md)
}

// DeleteCall permanently removes a call record. Initiator only, and
// only once the call is ended or cancelled.
func (s *CallService) DeleteCall(ctx context.Context, callerID, callID string) error {
	if callerID == "" {
		return teamdomain.ErrNotAuthenticated
	}

	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if call.InitiatorID != callerID {
		return domain.ErrInitiatorOnly
	}
	if !call.Status.Terminal() {
		return domain.ErrNotDeletable
	}

	return s.calls.Delete(ctx, callID)
}

// GetMyCalls lists the caller's calls (as initiator or participant),
// optionally filtered by status, newest-created first, with display
// names resolved.
func (s *CallService) GetMyCalls(ctx context.Context, callerID string, status *domain.CallStatus) ([]*domain.CallWithNames, error) {
	if callerID == "" {
		return nil, teamdomain.ErrNotAuthenticated
	}

	calls, err := s.calls.ListForUser(ctx, callerID, status)
	if err != nil {
		return nil, err
	}
	return s.populateNames(ctx, calls)
}

// GetActiveCalls lists the caller's currently active calls.
func (s *CallService) GetActiveCalls(ctx context.Context, callerID string) ([]*domain.CallWithNames, error) {
	active := domain.StatusActive
	return s.GetMyCalls(ctx, callerID, &active)
}

// GetCall fetches one call with names resolved. Callers without
// standing on the call are refused.
func (s *CallService) GetCall(ctx context.Context, callerID, callID string) (*domain.CallWithNames, error) {
	if callerID == "" {
		return nil, teamdomain.ErrNotAuthenticated
	}

	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !call.HasStanding(callerID) {
		return nil, domain.ErrForbidden
	}

	populated, err := s.populateNames(ctx, []*domain.Call{call})
	if err != nil {
		return nil, err
	}
	return populated[0], nil
}

// FindByStreamCallID looks a call up by its remote room id. Internal
// use only (reconciliation), so no standing check applies.
func (s *CallService) FindByStreamCallID(ctx context.Context, streamCallID string) (*domain.Call, error) {
	return s.calls.GetByStreamCallID(ctx, streamCallID)
}

// populateNames resolves display names for initiators and participants.
// Lookups are memoized per invocation since the same few users appear
// across many calls.
func (s *CallService) populateNames(ctx context.Context, calls []*domain.Call) ([]*domain.CallWithNames, error) {
	names := make(map[string]string)
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := "Unknown"
		if u, err := s.users.GetByID(ctx, id); err == nil {
			name = u.DisplayName()
		}
		names[id] = name
		return name
	}

	out := make([]*domain.CallWithNames, 0, len(calls))
	for _, c := range calls {
		withNames := &domain.CallWithNames{
			Call:             *c,
			InitiatorName:    resolve(c.InitiatorID),
			ParticipantNames: make([]string, 0, len(c.ParticipantIDs)),
		}
		for _, pid := range c.ParticipantIDs {
			withNames.ParticipantNames = append(withNames.ParticipantNames, resolve(pid))
		}
		out = append(out, withNames)
	}
	return out, nil
}

func (s *CallService) requireActiveCaller(ctx context.Context, callerID string) (*teamdomain.User, error) {
	if callerID == "" {
		return nil, teamdomain.ErrNotAuthenticated
	}
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, teamdomain.ErrUserNotFound) {
			return nil, teamdomain.ErrNotAuthenticated
		}
		return nil, err
	}
	if !caller.IsActive {
		return nil, teamdomain.ErrUserInactive
	}
	return caller, nil
}
