package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

// 加算すると数量上限を超えるため更新しなかった
var ErrCartQuantityLimit = errors.New("cart quantity limit exceeded")

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス。上限超過はErrCartQuantityLimit（更新なし）。
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64, unitPriceSnapshot int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
