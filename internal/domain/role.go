package domain

// Role is the moderation tier of a user. Stored as its string form.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// rank orders the tiers for moderation checks. Higher outranks lower.
func (r Role) rank() int {
	switch r {
	case RoleSuperadmin:
		return 2
	case RoleAdmin:
		return 1
	default:
		return 0
	}
}

// CanModerate reports whether a holder of this role may act on a user
// holding the target role. A moderator must strictly outrank the target:
// superadmins can act on admins and users, admins only on users. Nobody
// moderates a peer or a superior.
func (r Role) CanModerate(target Role) bool {
	if r.rank() == 0 {
		return false
	}
	return r.rank() > target.rank()
}
