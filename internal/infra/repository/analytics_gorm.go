package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

func (r *AnalyticsGormRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *AnalyticsGormRepository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error
	return n, err
}

func (r *AnalyticsGormRepository) CountPaidOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", model.OrderStatusPaid).
		Count(&n).Error
	return n, err
}

func (r *AnalyticsGormRepository) SumPaidRevenue(ctx context.Context) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", model.OrderStatusPaid).
		Select("SUM(total_amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *AnalyticsGormRepository) DailySales(ctx context.Context, start, end time.Time) ([]repo.DailySalesRow, error) {
	var rows []repo.DailySalesRow
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("to_char(created_at, 'YYYY-MM-DD') AS date, COUNT(*) AS sales, SUM(total_amount) AS revenue").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.OrderStatusPaid, start, end).
		Group("to_char(created_at, 'YYYY-MM-DD')").
		Order("date asc").
		Scan(&rows).Error
	if err != nil {
		return []repo.DailySalesRow{}, err
	}
	return rows, nil
}

func (r *AnalyticsGormRepository) CategorySales(ctx context.Context) ([]repo.CategorySalesRow, error) {
	var rows []repo.CategorySalesRow
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("products.category AS category, SUM(order_items.quantity) AS total_sold, SUM(order_items.unit_price_snapshot * order_items.quantity) AS total_revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ?", model.OrderStatusPaid).
		Group("products.category").
		Order("total_revenue desc").
		Scan(&rows).Error
	if err != nil {
		return []repo.CategorySalesRow{}, err
	}
	return rows, nil
}

func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, limit int) ([]repo.TopProductRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []repo.TopProductRow
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("order_items.product_id AS product_id, MAX(order_items.product_name_snapshot) AS name, SUM(order_items.quantity) AS total_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", model.OrderStatusPaid).
		Group("order_items.product_id").
		Order("total_sold desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return []repo.TopProductRow{}, err
	}
	return rows, nil
}

// 他の集計と同じくPAIDだけを数える（PENDINGは未確定）。
func (r *AnalyticsGormRepository) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND created_at >= ?", model.OrderStatusPaid, since).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}
