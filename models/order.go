package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is immutable once created. It keeps no foreign key to the store so
// that history survives franchise removal.
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	DinerID     uint        `gorm:"not null;index" json:"dinerId"`
	FranchiseID uint        `gorm:"not null;index" json:"franchiseId"`
	StoreID     uint        `gorm:"not null;index" json:"storeId"`
	Date        time.Time   `gorm:"not null" json:"date"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string { return "diner_orders" }

type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"-"`
	MenuID      uint            `gorm:"not null;index" json:"menuId"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (OrderItem) TableName() string { return "order_items" }

type NewOrderItem struct {
	MenuID      uint            `json:"menuId"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type NewOrder struct {
	FranchiseID uint           `json:"franchiseId"`
	StoreID     uint           `json:"storeId"`
	Items       []NewOrderItem `json:"items"`
}

// OrderPage is one page of a diner's order history.
type OrderPage struct {
	DinerID uint    `json:"dinerId"`
	Orders  []Order `json:"orders"`
	Page    int     `json:"page"`
}
