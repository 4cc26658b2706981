package domain

// Role determines both the per-minute rate limit and the daily quota default.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleStudent  Role = "student"
	RoleGraduate Role = "graduate_student"
	RoleStaff    Role = "staff"
	RoleFaculty  Role = "faculty"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a string to a known role, falling back to guest.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStudent, RoleGraduate, RoleStaff, RoleFaculty, RoleAdmin:
		return Role(s)
	default:
		return RoleGuest
	}
}

// RateLimit returns the per-minute request cap for the role.
func (r Role) RateLimit() int {
	switch r {
	case RoleStudent:
		return 20
	case RoleGraduate:
		return 30
	case RoleStaff:
		return 40
	case RoleFaculty:
		return 50
	case RoleAdmin:
		return 100
	default:
		return 5
	}
}

// DailyQuota returns the default daily request cap for the role.
// Per-user overrides and department limits take precedence, see quota.Service.
func (r Role) DailyQuota() int {
	switch r {
	case RoleStudent:
		return 50
	case RoleGraduate:
		return 75
	case RoleStaff:
		return 100
	case RoleFaculty:
		return 200
	case RoleAdmin:
		return 1000
	default:
		return 10
	}
}

// Requester is the identity on whose behalf a pipeline call is made.
// Anonymous callers get a per-client guest identity so rate limiting
// still applies.
type Requester struct {
	ID         string
	Role       Role
	Department string
}

// Guest builds an anonymous requester keyed by a client-derived suffix.
func Guest(clientKey string) Requester {
	return Requester{ID: "guest:" + clientKey, Role: RoleGuest}
}
