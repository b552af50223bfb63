package domain

import "time"

// CallStatus is the lifecycle state of a call.
type CallStatus string

const (
	StatusScheduled CallStatus = "scheduled"
	StatusActive    CallStatus = "active"
	StatusEnded     CallStatus = "ended"
	StatusCancelled CallStatus = "cancelled"
)

// Valid reports whether the status is one of the lifecycle states.
func (s CallStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusEnded, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s CallStatus) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// CanTransition is the transition table of the lifecycle state machine.
// A terminal call never transitions; ending is permitted from any
// non-terminal state (force termination from scheduled included).
func CanTransition(from, to CallStatus) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case StatusScheduled:
		return to == StatusActive || to == StatusCancelled || to == StatusEnded
	case StatusActive:
		return to == StatusEnded
	}
	return false
}

// CallType labels what kind of call this is. The set is open: unknown
// labels are stored and displayed verbatim.
type CallType string

const (
	TypeOneOnOne    CallType = "one_on_one"
	TypeTeamMeeting CallType = "team_meeting"
	TypeKYCSession  CallType = "kyc_session"
)

// Known reports whether the call type is one of the recognised labels.
func (t CallType) Known() bool {
	switch t {
	case TypeOneOnOne, TypeTeamMeeting, TypeKYCSession:
		return true
	}
	return false
}

// CallMetadata is the free-form descriptive block on a call. Updates
// replace the whole object, never merge.
type CallMetadata struct {
	Title      *string `json:"title,omitempty"`
	ClientName *string `json:"clientName,omitempty"`
	ClientID   *string `json:"clientId,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Call is the authoritative record of a call. StreamCallID points at the
// remote room with the transport provider and never changes once set.
// Times are epoch milliseconds, duration is seconds.
type Call struct {
	ID             string        `json:"id"`
	StreamCallID   string        `json:"stream_call_id"`
	CallType       CallType      `json:"call_type"`
	InitiatorID    string        `json:"initiator_id"`
	ParticipantIDs []string      `json:"participant_ids"`
	Status         CallStatus    `json:"status"`
	ScheduledTime  *int64        `json:"scheduled_time,omitempty"`
	StartTime      *int64        `json:"start_time,omitempty"`
	EndTime        *int64        `json:"end_time,omitempty"`
	Duration       *int          `json:"duration,omitempty"`
	RecordingURL   *string       `json:"recording_url,omitempty"`
	Metadata       *CallMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HasStanding reports whether the user may read or mutate the call:
// the initiator or any listed participant.
func (c *Call) HasStanding(userID string) bool {
	if c.InitiatorID == userID {
		return true
	}
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasParticipant reports whether the user is in the participant list.
func (c *Call) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CallWithNames is a call joined with resolved display names for the
// initiator and every participant.
type CallWithNames struct {
	Call
	InitiatorName    string   `json:"initiator_name"`
	ParticipantNames []string `json:"participant_names"`
}

// CreateCallRequest carries the arguments of the create-call operation.
type CreateCallRequest struct {
	StreamCallID   string
	CallType       CallType
	ParticipantIDs []string
	ScheduledTime  *int64
	Metadata       *CallMetadata
}

// StatusUpdate carries the arguments of the update-status operation.
type StatusUpdate struct {
	Status       CallStatus
	EndTime      *int64
	Duration     *int
	RecordingURL *string
}
