package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentsのHTTP。セッション作成と決済確認。
type PaymentHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewPaymentHandler(uc *usecase.CheckoutUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type CheckoutItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateCheckoutSessionRequest struct {
	Products   []CheckoutItemRequest `json:"products"`
	CouponCode string                `json:"coupon_code"`
	Provider   string                `json:"provider"`
}

type CheckoutSuccessRequest struct {
	SessionID string `json:"session_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/checkout-session", h.createSession)
	g.POST("/checkout-success", h.checkoutSuccess)
}

func (h *PaymentHandler) createSession(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CreateCheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.CheckoutItemInput, 0, len(req.Products))
	for _, it := range req.Products {
		items = append(items, usecase.CheckoutItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	out, err := h.uc.CreateSession(c.Request().Context(), userID, usecase.CreateCheckoutSessionInput{
		Items:      items,
		CouponCode: req.CouponCode,
		Provider:   req.Provider,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 決済確認。署名つきなら署名方式（Razorpay系）、
// session_idだけならセッション再取得方式（Stripe系）。
func (h *PaymentHandler) checkoutSuccess(c echo.Context) error {
	var req CheckoutSuccessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	var (
		out usecase.ConfirmOutput
		err error
	)
	if req.PaymentID != "" || req.Signature != "" {
		out, err = h.uc.ConfirmBySignature(c.Request().Context(), usecase.ConfirmSignatureInput{
			SessionID: req.SessionID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
		})
	} else {
		out, err = h.uc.ConfirmBySession(c.Request().Context(), req.SessionID)
	}
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
