package model

import "time"

// カートの明細。ユーザー集約に属する（user_idで直接ぶら下げる）。
// 追加時点の価格を必ず保存する。表示用で、決済時は正価を取り直す。
type CartItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"user_id"`
	ProductID         int64     `gorm:"not null;index:idx_cart_user_product,unique" json:"product_id"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// カート数量の上限（UI契約と同じ値をサーバーでも強制する）
const (
	CartQuantityMin int64 = 1
	CartQuantityMax int64 = 5
)
