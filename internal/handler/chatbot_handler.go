package handler

import (
	"net/http"
	"strings"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /chatbotのHTTP
type ChatbotHandler struct {
	uc *usecase.ChatbotUsecase
}

// DI
func NewChatbotHandler(uc *usecase.ChatbotUsecase) *ChatbotHandler {
	return &ChatbotHandler{uc: uc}
}

type ChatRequest struct {
	Message string `json:"message"`
}

func (h *ChatbotHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/chatbot", h.message)
}

func (h *ChatbotHandler) message(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty message"})
	}

	out, err := h.uc.Reply(c.Request().Context(), req.Message)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
