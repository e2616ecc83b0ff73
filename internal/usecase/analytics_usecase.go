package usecase

import (
	"context"
	"net/http"
	"time"

	repo "app/internal/repository"
)

// 注文ストアの読み取り集計だけ。書き込みはしない。
type AnalyticsUsecase struct {
	analyticsRepo repo.AnalyticsRepository
	clock         Clock
}

func NewAnalyticsUsecase(analyticsRepo repo.AnalyticsRepository, clock Clock) *AnalyticsUsecase {
	return &AnalyticsUsecase{analyticsRepo: analyticsRepo, clock: clock}
}

type AnalyticsSummary struct {
	Users        int64 `json:"users"`
	Products     int64 `json:"products"`
	TotalSales   int64 `json:"total_sales"`
	TotalRevenue int64 `json:"total_revenue"`
}

func (u *AnalyticsUsecase) Summary(ctx context.Context) (AnalyticsSummary, error) {
	users, err := u.analyticsRepo.CountUsers(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	products, err := u.analyticsRepo.CountProducts(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	sales, err := u.analyticsRepo.CountPaidOrders(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	revenue, err := u.analyticsRepo.SumPaidRevenue(ctx)
	if err != nil {
		return AnalyticsSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AnalyticsSummary{
		Users:        users,
		Products:     products,
		TotalSales:   sales,
		TotalRevenue: revenue,
	}, nil
}

type DailySalesInput struct {
	Start time.Time
	End   time.Time
}

// 日別売上。注文のない日は0で埋めて返す。
func (u *AnalyticsUsecase) DailySales(ctx context.Context, in DailySalesInput) ([]repo.DailySalesRow, error) {
	if in.Start.IsZero() || in.End.IsZero() || in.End.Before(in.Start) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	rows, err := u.analyticsRepo.DailySales(ctx, in.Start, in.End)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byDate := make(map[string]repo.DailySalesRow, len(rows))
	for _, r := range rows {
		byDate[r.Date] = r
	}

	out := make([]repo.DailySalesRow, 0)
	for d := in.Start; !d.After(in.End); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if r, ok := byDate[key]; ok {
			out = append(out, r)
		} else {
			out = append(out, repo.DailySalesRow{Date: key})
		}
	}
	return out, nil
}

func (u *AnalyticsUsecase) CategorySales(ctx context.Context) ([]repo.CategorySalesRow, error) {
	rows, err := u.analyticsRepo.CategorySales(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rows, nil
}

func (u *AnalyticsUsecase) TopProducts(ctx context.Context) ([]repo.TopProductRow, error) {
	rows, err := u.analyticsRepo.TopProducts(ctx, 5)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rows, nil
}

type ActiveUsersOutput struct {
	ActiveUsers int64 `json:"active_users"`
	Days        int   `json:"days"`
}

func (u *AnalyticsUsecase) ActiveUsers(ctx context.Context, days int) (ActiveUsersOutput, error) {
	if days < 1 || days > 365 {
		return ActiveUsersOutput{}, NewHTTPError(http.StatusBadRequest, "invalid days")
	}

	cutoff := u.clock.Now().AddDate(0, 0, -days)
	n, err := u.analyticsRepo.CountActiveUsers(ctx, cutoff)
	if err != nil {
		return ActiveUsersOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ActiveUsersOutput{ActiveUsers: n, Days: days}, nil
}
