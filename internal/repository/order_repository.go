package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	//PENDINGのときだけPAIDへ。2回目はno-op（false,nil）。
	MarkPaidIfPending(ctx context.Context, orderID int64, paymentID string) (bool, error)

	//検索（同じセッションなら同じ注文を返す）
	FindByProviderSessionID(ctx context.Context, sessionID string) (model.Order, bool, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
