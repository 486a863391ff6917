package model

type User struct {
	UserID      uint       `gorm:"primaryKey"`
	UserName    string     `gorm:"not null;type:varchar(50)"`
	UserEmail   string     `gorm:"unique;not null;type:varchar(100)"`
	UserAddress string     `gorm:"type:varchar(255)"`
	Orders      []Order    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CartItems   []CartItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	BaseModel
}
