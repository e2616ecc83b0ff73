package model

import (
	"time"

	"gorm.io/gorm"
)

// 価格は最小通貨単位のint64で持つ。
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Image       string         `gorm:"type:varchar(512)" json:"image"`
	Category    string         `gorm:"type:varchar(100);not null;index" json:"category"`
	IsFeatured  bool           `gorm:"not null;default:false;index" json:"is_featured"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	SellerID    *int64         `gorm:"index" json:"seller_id,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
