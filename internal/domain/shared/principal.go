package shared

import (
	"github.com/google/uuid"
)

// Role defines the access level of an authenticated principal
type Role string

const (
	RoleResident       Role = "RESIDENT"
	RoleCommunityAdmin Role = "COMMUNITY_ADMIN"
	// RoleManager is the cross-community override role held by portal operators
	RoleManager Role = "MANAGER"
)

// Principal is the authenticated actor supplied by the external auth layer.
// The service never issues or validates credentials itself.
type Principal struct {
	ID          uuid.UUID `json:"id"`
	Role        Role      `json:"role"`
	CommunityID uuid.UUID `json:"community_id"`
}

// IsAdmin reports whether the principal may perform administrative actions at all
func (p Principal) IsAdmin() bool {
	return p.Role == RoleCommunityAdmin || p.Role == RoleManager
}

// CanAdminister reports whether the principal may administer the given community.
// Managers may administer any community; community admins only their own.
func (p Principal) CanAdminister(communityID uuid.UUID) bool {
	if p.Role == RoleManager {
		return true
	}
	return p.Role == RoleCommunityAdmin && p.CommunityID == communityID
}

// ErrRoleDenied indicates the principal's role does not permit the action
type ErrRoleDenied struct {
	PrincipalID uuid.UUID
	Role        Role
}

func (e ErrRoleDenied) Error() string {
	return "role " + string(e.Role) + " not permitted for principal: " + e.PrincipalID.String()
}

// ErrWrongCommunity indicates the principal is scoped to a different community
type ErrWrongCommunity struct {
	PrincipalID uuid.UUID
	CommunityID uuid.UUID
}

func (e ErrWrongCommunity) Error() string {
	return "principal " + e.PrincipalID.String() + " is not an admin of community: " + e.CommunityID.String()
}
