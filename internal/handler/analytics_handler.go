package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/analyticsのHTTP
type AnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

// DI
func NewAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func (h *AnalyticsHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/analytics")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("", h.summary)
	g.GET("/daily-sales", h.dailySales)
	g.GET("/category-sales", h.categorySales)
	g.GET("/top-products", h.topProducts)
	g.GET("/active-users", h.activeUsers)
}

func (h *AnalyticsHandler) summary(c echo.Context) error {
	out, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) dailySales(c echo.Context) error {
	//start/endはYYYY-MM-DD
	start, err := time.Parse("2006-01-02", c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid start"})
	}
	end, err := time.Parse("2006-01-02", c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid end"})
	}

	out, err := h.uc.DailySales(c.Request().Context(), usecase.DailySalesInput{Start: start, End: end})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) categorySales(c echo.Context) error {
	out, err := h.uc.CategorySales(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) topProducts(c echo.Context) error {
	out, err := h.uc.TopProducts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) activeUsers(c echo.Context) error {
	// days（default 30）
	days := 30
	if v := c.QueryParam("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid days"})
		}
		days = d
	}

	out, err := h.uc.ActiveUsers(c.Request().Context(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
