package user

// Kind tags the resolved identity of a caller.
type Kind int

const (
	KindAnonymous Kind = iota
	KindAdmin
	KindInstructor
	KindStudent
	KindUser // authenticated, no profile and not staff
)

func (k Kind) String() string {
	switch k {
	case KindAdmin:
		return "admin"
	case KindInstructor:
		return "instructor"
	case KindStudent:
		return "student"
	case KindUser:
		return "user"
	default:
		return "anonymous"
	}
}

// Principal is the caller of an operation, resolved once per request.
//
// A staff user without a profile is an Admin. A user with a profile is evaluated
// under that profile, even if staff: the staff shortcut only applies when no
// profile exists.
type Principal struct {
	Kind   Kind
	User   User
	Member Member // zero unless Kind is KindInstructor or KindStudent
}

var Anonymous = Principal{Kind: KindAnonymous}

// NewPrincipal builds the principal of `usr`. `member` is the role record of
// the user's profile, nil when the record is missing.
func NewPrincipal(usr User, member *Member) Principal {
	if usr.Profile == nil {
		if usr.IsStaff {
			return Principal{Kind: KindAdmin, User: usr}
		}
		return Principal{Kind: KindUser, User: usr}
	}

	p := Principal{User: usr}
	switch usr.Profile.Role {
	case RoleInstructor:
		p.Kind = KindInstructor
	case RoleStudent:
		p.Kind = KindStudent
	default:
		p.Kind = KindUser
		return p
	}
	if member != nil {
		p.Member = *member
	} else {
		// a profile without its role record never counts as activated
		p.Member = Member{Role: usr.Profile.Role, Status: StatusDeactivated, User: usr}
	}
	return p
}

func (p Principal) IsAnonymous() bool { return p.Kind == KindAnonymous }
func (p Principal) IsAdmin() bool     { return p.Kind == KindAdmin }

// Is reports whether the principal holds `role`, whatever its status.
func (p Principal) Is(role Role) bool {
	switch role {
	case RoleInstructor:
		return p.Kind == KindInstructor
	case RoleStudent:
		return p.Kind == KindStudent
	}
	return false
}

// HasActiveRole reports whether the principal holds `role` and its record is activated.
func (p Principal) HasActiveRole(role Role) bool {
	return p.Is(role) && p.Member.IsActivated()
}

func (p Principal) InstructorOrAdmin() bool {
	return p.IsAdmin() || p.HasActiveRole(RoleInstructor)
}

func (p Principal) StudentOrAdmin() bool {
	return p.IsAdmin() || p.HasActiveRole(RoleStudent)
}
