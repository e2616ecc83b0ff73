package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type CouponUsecase struct {
	couponRepo repo.CouponRepository
	clock      Clock
	log        *slog.Logger
}

func NewCouponUsecase(couponRepo repo.CouponRepository, clock Clock, log *slog.Logger) *CouponUsecase {
	return &CouponUsecase{couponRepo: couponRepo, clock: clock, log: log}
}

type CouponOutput struct {
	Code               string `json:"code"`
	DiscountPercentage int64  `json:"discount_percentage"`
	ExpirationDate     string `json:"expiration_date"`
}

// 自分の有効なクーポンを1枚返す。期限切れ・使用済みは404。
func (u *CouponUsecase) GetMyCoupon(ctx context.Context, userID int64) (CouponOutput, error) {
	if userID <= 0 {
		return CouponOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	c, err := u.couponRepo.FindByUserID(ctx, userID)
	if err == repo.ErrNotFound {
		return CouponOutput{}, NewHTTPError(http.StatusNotFound, "no coupon")
	}
	if err != nil {
		return CouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !c.IsActive || c.IsExpired(u.clock.Now()) {
		return CouponOutput{}, NewHTTPError(http.StatusNotFound, "no coupon")
	}

	return toCouponOutput(c), nil
}

type ValidateCouponInput struct {
	Code string
}

// コードの検証。期限切れで有効フラグが残っていたら見つけ次第無効化する。
func (u *CouponUsecase) Validate(ctx context.Context, userID int64, in ValidateCouponInput) (CouponOutput, error) {
	if userID <= 0 {
		return CouponOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return CouponOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
	}

	c, err := u.couponRepo.FindActiveByCodeAndUserID(ctx, code, userID)
	if err == repo.ErrNotFound {
		return CouponOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
	}
	if err != nil {
		return CouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if c.IsExpired(u.clock.Now()) {
		if _, err := u.couponRepo.DeactivateIfActive(ctx, c.Code, userID); err != nil {
			u.log.Warn("expired coupon deactivate failed", "code", c.Code, "error", err)
		}
		return CouponOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
	}

	return toCouponOutput(c), nil
}

func toCouponOutput(c model.Coupon) CouponOutput {
	return CouponOutput{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		ExpirationDate:     c.ExpirationDate.Format("2006-01-02"),
	}
}
