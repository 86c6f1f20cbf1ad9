package models

import "github.com/shopspring/decimal"

type Franchise struct {
	ID     uint             `gorm:"primaryKey" json:"id"`
	Name   string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Stores []Store          `gorm:"foreignKey:FranchiseID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"stores"`
	Admins []FranchiseAdmin `gorm:"-" json:"admins,omitempty"`
}

func (Franchise) TableName() string { return "franchises" }

// FranchiseAdmin is a user holding a franchisee binding on the franchise.
type FranchiseAdmin struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Store struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	FranchiseID  uint             `gorm:"not null;index" json:"franchiseId"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	TotalRevenue *decimal.Decimal `gorm:"-" json:"totalRevenue,omitempty"`
}

func (Store) TableName() string { return "stores" }

type AdminRef struct {
	Email string `json:"email"`
}

type NewStore struct {
	Name string `json:"name"`
}

type NewFranchise struct {
	Name   string     `json:"name"`
	Admins []AdminRef `json:"admins"`
	Stores []NewStore `json:"stores"`
}

// FranchiseQuery selects a page of franchises. Page is 1-indexed; Name may use
// '*' as a wildcard.
type FranchiseQuery struct {
	Page  int
	Limit int
	Name  string
}

type FranchisePage struct {
	Franchises []Franchise `json:"franchises"`
	More       bool        `json:"more"`
}
