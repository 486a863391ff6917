package model

import (
	"time"
)

// CartItem 購物車明細，(user, product) 唯一，重複加入只會累加數量
// 不掛 BaseModel：購物車是暫存資料，一律硬刪除，軟刪除會殘留資料列卡住唯一索引
type CartItem struct {
	CartItemID uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_items_user_product"`
	Quantity   int       `gorm:"not null"`
	Product    Product   `gorm:"foreignKey:ProductID;references:ProductID"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
	UpdatedAt  time.Time `gorm:"null"`
}
