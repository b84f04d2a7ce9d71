package auth

import "github.com/englishmaster/api/model"

// Identity is the authenticated caller, resolved once by the auth middleware
// and passed explicitly to services. Services never read session state from
// anywhere else.
type Identity struct {
	UserID uint
	Email  string
	Name   string
	Phone  string
	Role   string
}

// IdentityFromUser builds an Identity from a loaded user record.
func IdentityFromUser(u *model.User) Identity {
	return Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Phone:  u.Phone,
		Role:   u.Role,
	}
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}
