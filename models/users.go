package models

import "time"

// User is the stored identity. Password holds the bcrypt hash and is never
// serialized; services blank it before returning a User.
type User struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"type:varchar(255);not null" json:"name"`
	Email     string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string        `gorm:"type:varchar(255);not null" json:"-"`
	Bindings  []RoleBinding `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Roles     RoleSet       `gorm:"-" json:"roles"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsRole(kind RoleKind) bool { return u.Roles.IsRole(kind) }

// NewUser is the input of user registration.
type NewUser struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Roles    []RoleRequest `json:"roles"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// AuthUser is the identity resolved from a bearer token.
type AuthUser struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Roles RoleSet `json:"roles"`
}

func (a *AuthUser) IsRole(kind RoleKind) bool { return a.Roles.IsRole(kind) }

// AuthUserFrom copies the public fields of u.
func AuthUserFrom(u *User) AuthUser {
	return AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Roles: u.Roles}
}
