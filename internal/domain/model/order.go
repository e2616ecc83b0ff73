package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
)

type PaymentProvider string

const (
	ProviderStripe   PaymentProvider = "stripe"
	ProviderRazorpay PaymentProvider = "razorpay"
)

// 注文はセッション作成時にPENDINGで作り、検証済み確認でPAIDにする。
// provider_session_idが冪等キー。
type Order struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"not null;index" json:"user_id"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount       int64           `gorm:"not null" json:"total_amount"`
	Provider          PaymentProvider `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderSessionID string          `gorm:"type:varchar(255);not null;uniqueIndex" json:"provider_session_id"`
	PaymentID         string          `gorm:"type:varchar(255)" json:"payment_id,omitempty"`
	CouponCode        string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
