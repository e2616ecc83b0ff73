package model

import "time"

// 1ユーザーにつきクーポンは1枚（新規発行で前のものは消す）。
// 使用済みはis_activeをfalseにする（単回使用）。
type Coupon struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code               string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountPercentage int64     `gorm:"not null" json:"discount_percentage"`
	UserID             int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	IsActive           bool      `gorm:"not null;default:true" json:"is_active"`
	ExpirationDate     time.Time `gorm:"not null" json:"expiration_date"`
	CreatedAt          time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 有効期限切れかどうか
func (c Coupon) IsExpired(now time.Time) bool {
	return now.After(c.ExpirationDate)
}
