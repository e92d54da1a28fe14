package guard

// Role is the closed set of roles the guards know how to route.
// Anything that does not parse into a known role is RoleUnknown.
type Role string

const (
	RoleUnknown  Role = "unknown"
	RoleStudent  Role = "student"
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
)

// roleAliases maps raw role strings to their tag. Matching is case-sensitive.
var roleAliases = map[string]Role{
	"student":  RoleStudent,
	"admin":    RoleAdmin,
	"security": RoleSecurity,
	"guard":    RoleSecurity,
}

// ParseRole parses a raw role string. The boolean reports whether the
// role is one of the known roles.
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[raw]
	if !ok {
		return RoleUnknown, false
	}
	return role, true
}

// IsKnown reports whether the role is not RoleUnknown
func (r Role) IsKnown() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSecurity:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// GetAllRoles returns the known roles
func GetAllRoles() []Role {
	return []Role{
		RoleStudent,
		RoleAdmin,
		RoleSecurity,
	}
}

// Routes holds the paths guards redirect to.
type Routes struct {
	Login    string
	Student  string
	Admin    string
	Security string
}

// DefaultRoutes returns the static role to landing path table
func DefaultRoutes() Routes {
	return Routes{
		Login:    "/login",
		Student:  "/student",
		Admin:    "/admin",
		Security: "/security",
	}
}

// Landing returns the default landing path for a role. It returns false
// for RoleUnknown, callers decide what the fallback is.
func (r Routes) Landing(role Role) (string, bool) {
	switch role {
	case RoleStudent:
		return r.Student, true
	case RoleAdmin:
		return r.Admin, true
	case RoleSecurity:
		return r.Security, true
	default:
		return "", false
	}
}

// withDefaults fills empty paths from DefaultRoutes
func (r Routes) withDefaults() Routes {
	def := DefaultRoutes()
	if r.Login == "" {
		r.Login = def.Login
	}
	if r.Student == "" {
		r.Student = def.Student
	}
	if r.Admin == "" {
		r.Admin = def.Admin
	}
	if r.Security == "" {
		r.Security = def.Security
	}
	return r
}
