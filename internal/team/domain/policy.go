package domain

import "strings"

// Authorization policy: pure capability checks over a user record.
// Every function tolerates a nil user and answers false.

// NormalizePeopleManager converts the legacy dual-typed people-manager
// flag to a boolean. Boolean true and the string "yes" (any casing)
// mean true; everything else, including absence, means false.
// The function is idempotent over its own output.
func NormalizePeopleManager(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "yes") || strings.EqualFold(t, "true")
	case *string:
		if t == nil {
			return false
		}
		return NormalizePeopleManager(*t)
	}
	return false
}

// IsAdmin reports whether the user holds the admin role.
func IsAdmin(u *User) bool {
	if u == nil {
		return false
	}
	return strings.EqualFold(string(u.Role), string(RoleAdmin))
}

// CanAccessTeamPage reports whether the user may see the team page:
// admins, ops admins, and people managers.
func CanAccessTeamPage(u *User) bool {
	if u == nil {
		return false
	}
	if IsAdmin(u) {
		return true
	}
	if strings.EqualFold(string(u.Role), string(RoleOpsAdmin)) {
		return true
	}
	return u.IsPeopleManager
}
