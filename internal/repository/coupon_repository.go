package repository

import (
	"context"

	"app/internal/domain/model"
)

type CouponRepository interface {
	//code+user_id+is_active=true の1件
	FindActiveByCodeAndUserID(ctx context.Context, code string, userID int64) (model.Coupon, error)
	FindByUserID(ctx context.Context, userID int64) (model.Coupon, error)
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	//既存クーポンを消す（新規発行の前処理）
	DeleteByUserID(ctx context.Context, userID int64) error
	//is_active=trueのときだけ無効化する。2回目はno-op（false,nil）。
	DeactivateIfActive(ctx context.Context, code string, userID int64) (bool, error)
}
