package models

import (
	"encoding/json"
	"fmt"
)

// RoleKind is the permission level carried by a role binding.
type RoleKind string

const (
	RoleDiner      RoleKind = "diner"
	RoleFranchisee RoleKind = "franchisee"
	RoleAdmin      RoleKind = "admin"
)

// NoObject marks a binding that is not scoped to a franchise.
const NoObject uint = 0

// Role is one of DinerRole, FranchiseeRole or AdminRole.
// Only FranchiseeRole carries an object (the franchise it grants authority over).
type Role interface {
	Kind() RoleKind
	ObjectID() uint
	role()
}

type DinerRole struct{}

func (DinerRole) Kind() RoleKind { return RoleDiner }
func (DinerRole) ObjectID() uint { return NoObject }
func (DinerRole) role()          {}

type FranchiseeRole struct {
	FranchiseID uint
}

func (FranchiseeRole) Kind() RoleKind   { return RoleFranchisee }
func (r FranchiseeRole) ObjectID() uint { return r.FranchiseID }
func (FranchiseeRole) role()            {}

type AdminRole struct{}

func (AdminRole) Kind() RoleKind { return RoleAdmin }
func (AdminRole) ObjectID() uint { return NoObject }
func (AdminRole) role()          {}

// ParseRole builds the variant for a stored (kind, objectID) pair.
func ParseRole(kind RoleKind, objectID uint) (Role, error) {
	switch kind {
	case RoleDiner:
		return DinerRole{}, nil
	case RoleAdmin:
		return AdminRole{}, nil
	case RoleFranchisee:
		if objectID == NoObject {
			return nil, fmt.Errorf("franchisee role without franchise")
		}
		return FranchiseeRole{FranchiseID: objectID}, nil
	}
	return nil, fmt.Errorf("unknown role %q", kind)
}

// RoleSet is the list of roles bound to one user.
type RoleSet []Role

// IsRole reports whether any binding has the given kind.
func (rs RoleSet) IsRole(kind RoleKind) bool {
	for _, r := range rs {
		if r.Kind() == kind {
			return true
		}
	}
	return false
}

// AdministersFranchise reports whether the set holds a franchisee binding for franchiseID.
func (rs RoleSet) AdministersFranchise(franchiseID uint) bool {
	for _, r := range rs {
		if fr, ok := r.(FranchiseeRole); ok && fr.FranchiseID == franchiseID {
			return true
		}
	}
	return false
}

type roleJSON struct {
	Role     RoleKind `json:"role"`
	ObjectID uint     `json:"objectId,omitempty"`
}

func (rs RoleSet) MarshalJSON() ([]byte, error) {
	out := make([]roleJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, roleJSON{Role: r.Kind(), ObjectID: r.ObjectID()})
	}
	return json.Marshal(out)
}

func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var raw []roleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := make(RoleSet, 0, len(raw))
	for _, r := range raw {
		role, err := ParseRole(r.Role, r.ObjectID)
		if err != nil {
			return err
		}
		set = append(set, role)
	}
	*rs = set
	return nil
}

// RoleRequest is a role asked for at user creation. For franchisee roles Object
// names the franchise; it is resolved to an id by the user service.
type RoleRequest struct {
	Role   RoleKind `json:"role"`
	Object string   `json:"object,omitempty"`
}

// RoleBinding is the persisted row behind a Role.
type RoleBinding struct {
	ID       uint     `gorm:"primaryKey"`
	UserID   uint     `gorm:"not null;index"`
	Role     RoleKind `gorm:"type:varchar(32);not null"`
	ObjectID uint     `gorm:"not null;default:0;index"`
}

func (RoleBinding) TableName() string { return "user_roles" }

// BindingFor converts a role into its row for userID.
func BindingFor(userID uint, r Role) RoleBinding {
	return RoleBinding{UserID: userID, Role: r.Kind(), ObjectID: r.ObjectID()}
}
