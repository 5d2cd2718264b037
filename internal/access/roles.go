package access

import (
	"strconv"
	"strings"
)

// Role identifies what an authenticated actor may see. The numeric values
// are the backend's role ids.
type Role int

const (
	Admin    Role = 1
	Manager  Role = 2
	Driver   Role = 3
	Customer Role = 4
)

var roleNames = map[Role]string{
	Admin:    "admin",
	Manager:  "manager",
	Driver:   "driver",
	Customer: "customer",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole reads a role id as stored in the session.
func ParseRole(s string) (Role, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	r := Role(n)
	return r, r.Valid()
}

// RoleSet is the set of roles a route admits.
type RoleSet map[Role]struct{}

func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Route paths served by the console.
const (
	LoginPath             = "/login"
	AdminDashboardPath    = "/admin/dashboard"
	ManagerDashboardPath  = "/manager/dashboard"
	DriverDashboardPath   = "/driver/dashboard"
	CustomerDashboardPath = "/customer/dashboard"
)

// RouteRoles is the single table of role-scoped routes.
var RouteRoles = map[string]RoleSet{
	AdminDashboardPath:    Roles(Admin),
	ManagerDashboardPath:  Roles(Manager),
	DriverDashboardPath:   Roles(Driver),
	CustomerDashboardPath: Roles(Customer),
}

// HomeFor is where a freshly logged-in role lands.
func HomeFor(r Role) string {
	switch r {
	case Admin:
		return AdminDashboardPath
	case Manager:
		return ManagerDashboardPath
	case Driver:
		return DriverDashboardPath
	case Customer:
		return CustomerDashboardPath
	default:
		return LoginPath
	}
}
