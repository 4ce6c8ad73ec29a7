package auth

type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Capability names a permission checked by the booking workflow.
// Callers ask for capabilities instead of comparing roles.
type Capability string

const (
	CapBookClasses      Capability = "book_classes"
	CapManageAnyBooking Capability = "manage_any_booking"
	CapManageOwnClasses Capability = "manage_own_classes"
	CapManageAllClasses Capability = "manage_all_classes"
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleMember: {
		CapBookClasses: true,
	},
	RoleTrainer: {
		CapBookClasses:      true,
		CapManageAnyBooking: true,
		CapManageOwnClasses: true,
	},
	RoleAdmin: {
		CapBookClasses:      true,
		CapManageAnyBooking: true,
		CapManageOwnClasses: true,
		CapManageAllClasses: true,
	},
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) Can(c Capability) bool {
	return a.Role.Can(c)
}

// CanActFor reports whether the actor owns the resource or holds c.
func (a Actor) CanActFor(ownerID string, c Capability) bool {
	return a.UserID == ownerID || a.Can(c)
}

// CanManageClass reports whether the actor may administer a class run by trainerID.
func (a Actor) CanManageClass(trainerID string) bool {
	if a.Can(CapManageAllClasses) {
		return true
	}
	return a.Can(CapManageOwnClasses) && a.UserID == trainerID
}
