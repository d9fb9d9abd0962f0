package game

// Role identifies one of the three fixed seats. The landlord plays first;
// the two peasants cooperate against the landlord. Play proceeds landlord,
// down-seat peasant, up-seat peasant.
type Role uint8

const (
	Landlord Role = iota
	PeasantDown
	PeasantUp

	NumRoles = 3
)

var roleNames = [NumRoles]string{"landlord", "peasant_down", "peasant_up"}

func (r Role) String() string {
	if r >= NumRoles {
		return "unknown"
	}
	return roleNames[r]
}

// Next returns the seat that plays after r.
func (r Role) Next() Role {
	return (r + 1) % NumRoles
}

// IsPeasant reports whether r sits on the peasant side.
func (r Role) IsPeasant() bool {
	return r != Landlord
}

// Roles lists all seats in play order, for range loops that must cover
// every per-role pipeline exactly once.
func Roles() [NumRoles]Role {
	return [NumRoles]Role{Landlord, PeasantDown, PeasantUp}
}

// ParseRole maps a role name back to its Role, for checkpoint restore.
func ParseRole(name string) (Role, bool) {
	for i, n := range roleNames {
		if n == name {
			return Role(i), true
		}
	}
	return 0, false
}
