package domain

import (
	"strings"
	"time"
)

// Role is a label attached to a user record. The set below covers the
// roles the dashboard knows about; anything else is carried through and
// displayed verbatim.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleOpsAdmin   Role = "Ops Admin"
	RoleTeamLead   Role = "Team Lead"
	RoleKYCAnalyst Role = "KYC Analyst"
	RoleQCAnalyst  Role = "QC Analyst"
)

// Known reports whether the role is one of the recognised labels.
func (r Role) Known() bool {
	switch CanonicalRole(r) {
	case RoleAdmin, RoleOpsAdmin, RoleTeamLead, RoleKYCAnalyst, RoleQCAnalyst:
		return true
	}
	return false
}

// CanonicalRole fixes up legacy lowercase role labels ("admin" ->
// "Admin"). Unrecognised labels are returned unchanged.
func CanonicalRole(r Role) Role {
	switch strings.ToLower(string(r)) {
	case "admin":
		return RoleAdmin
	case "ops admin":
		return RoleOpsAdmin
	case "team lead":
		return RoleTeamLead
	case "kyc analyst":
		return RoleKYCAnalyst
	case "qc analyst":
		return RoleQCAnalyst
	}
	return r
}

// User represents a user record in the team directory.
// FirebaseUID links the row to the Firebase identity; it is empty for
// profiles that have not signed in yet.
type User struct {
	ID              string     `json:"id"`
	FirebaseUID     string     `json:"-"`
	Email           string     `json:"email"`
	Name            *string    `json:"name,omitempty"`
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	Role            Role       `json:"role"`
	IsPeopleManager bool       `json:"is_people_manager"`
	TeamLead        *string    `json:"team_lead,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// DisplayName resolves a human-readable name for the user.
// Fallback chain: name -> "first last" -> "Unknown".
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	first, last := "", ""
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return "Unknown"
}

// CreateUserRequest carries the fields for the admin-only user creation flow.
type CreateUserRequest struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Role            Role
	IsPeopleManager bool
	TeamLead        *string
	IsActive        bool
}

// UpdateUserRequest carries the fields for the admin-only user update flow.
// All fields are replaced, matching the edit dialog which always submits
// the full form.
type UpdateUserRequest struct {
	Email           string
	FirstName       string
	LastName        string
	Role            Role
	IsPeopleManager bool
	TeamLead        *string
	IsActive        bool
}

// TeamLeadSummary is the slim projection used for team-lead pickers.
type TeamLeadSummary struct {
	ID        string  `json:"id"`
	Name      *string `json:"name,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}
