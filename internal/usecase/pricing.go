package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

// 割引額 = subtotal × pct / 100。
// 端数は四捨五入（half-up）で最小通貨単位に丸める。明細ごとではなく合計に1回だけ適用する。
func ComputeDiscount(subtotal int64, pct int64) int64 {
	if pct <= 0 || subtotal <= 0 {
		return 0
	}
	if pct >= 100 {
		return subtotal
	}
	d := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return d.IntPart()
}

// DIで差し替えられる時計とID生成
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}
