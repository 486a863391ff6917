package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 本系統只有立即完成的購買，訂單建立即為 completed，不可取消
const OrderStatusCompleted = "completed"

type Order struct {
	OrderID    uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"not null;index"`
	OrderItems []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Amount     decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	Status     string          `gorm:"not null;type:varchar(20)"`
	OrderDate  time.Time       `gorm:"not null;index"`
	BaseModel
}

type OrderItem struct {
	OrderID   uint `gorm:"primaryKey"`
	ProductID uint `gorm:"primaryKey"`
	Quantity  int  `gorm:"not null"`
	// 成交當下的單價，訂單成立後不隨商品價格變動
	Price   decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	Product Product         `gorm:"foreignKey:ProductID;references:ProductID"`
	BaseModel
}
