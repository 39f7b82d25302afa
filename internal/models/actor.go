package models

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the actor may act as staff for an event sold by
// sellerID.
func (a Actor) CanManage(sellerID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == sellerID)
}
