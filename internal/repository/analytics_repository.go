package repository

import (
	"context"
	"time"
)

// 集計の読み取り専用クエリ。書き込みはしない。
type DailySalesRow struct {
	Date    string `json:"date"`
	Sales   int64  `json:"sales"`
	Revenue int64  `json:"revenue"`
}

type CategorySalesRow struct {
	Category     string `json:"category"`
	TotalSold    int64  `json:"total_sold"`
	TotalRevenue int64  `json:"total_revenue"`
}

type TopProductRow struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	TotalSold int64  `json:"total_sold"`
}

type AnalyticsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	//PAIDの注文だけ数える
	CountPaidOrders(ctx context.Context) (int64, error)
	SumPaidRevenue(ctx context.Context) (int64, error)
	//日付ごとの売上（歯抜けの日は呼び出し側で埋める）
	DailySales(ctx context.Context, start, end time.Time) ([]DailySalesRow, error)
	CategorySales(ctx context.Context) ([]CategorySalesRow, error)
	TopProducts(ctx context.Context, limit int) ([]TopProductRow, error)
	//期間内に注文したユーザー数（重複なし）
	CountActiveUsers(ctx context.Context, since time.Time) (int64, error)
}
