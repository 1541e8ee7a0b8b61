package domain

// Role is the single role a principal acts under.
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleAgent      Role = "agent"
	RoleSubmitter  Role = "submitter"
)

// RoleFromFlags derives the role from profile flags. Supervisor wins over agent.
func RoleFromFlags(isAgent, isSupervisor bool) Role {
	switch {
	case isSupervisor:
		return RoleSupervisor
	case isAgent:
		return RoleAgent
	default:
		return RoleSubmitter
	}
}

// IsStaff reports whether the role is agent or supervisor.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleSupervisor
}

// Profile holds the externally managed role flags of a user.
type Profile struct {
	UserID       string
	FullName     string
	Email        string
	DepartmentID *string
	JobTitle     string
	Phone        string
	IsAgent      bool
	IsSupervisor bool
}

// Role derives the profile's role.
func (p Profile) Role() Role {
	return RoleFromFlags(p.IsAgent, p.IsSupervisor)
}

// DisplayName falls back to the user id when no name is stored.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.UserID
}

// Principal is the authenticated caller, resolved once per request.
type Principal struct {
	UserID       string
	Role         Role
	DepartmentID *string
}

// NewPrincipal builds a principal from a stored profile. A nil profile yields
// a submitter without department.
func NewPrincipal(userID string, profile *Profile) *Principal {
	if profile == nil {
		return &Principal{UserID: userID, Role: RoleSubmitter}
	}
	return &Principal{
		UserID:       userID,
		Role:         profile.Role(),
		DepartmentID: cloneString(profile.DepartmentID),
	}
}

// InDepartment reports whether the principal belongs to departmentID.
func (p *Principal) InDepartment(departmentID string) bool {
	return p != nil && p.DepartmentID != nil && *p.DepartmentID == departmentID
}
