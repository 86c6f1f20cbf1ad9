package models

import "time"

// AuthToken records an active session by the signature segment of its bearer token.
type AuthToken struct {
	Signature string    `gorm:"type:varchar(512);primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (AuthToken) TableName() string { return "auth_tokens" }
