package server

import (
	"github.com/labstack/echo/v4"

	"app/internal/config"
	"app/internal/handler"
)

// Handlers はルート登録に必要なハンドラ一式。
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Seller       *handler.SellerHandler
	Cart         *handler.CartHandler
	Coupon       *handler.CouponHandler
	Payment      *handler.PaymentHandler
	Order        *handler.OrderHandler
	Analytics    *handler.AnalyticsHandler
	Chatbot      *handler.ChatbotHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg)
	h.Seller.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Coupon.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Analytics.RegisterRoutes(e, cfg)
	h.Chatbot.RegisterRoutes(e)
}
