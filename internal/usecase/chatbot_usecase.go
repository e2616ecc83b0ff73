package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"app/internal/chatbot"
	repo "app/internal/repository"
)

const chatbotUnavailableMessage = "AI is currently unavailable. Try again later."

// テキスト生成のバックエンド。実体はinternal/chatbotのクライアント。
type TextGenerator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// チャットボット。まずカタログの商品名マッチ、だめなら外部生成にフォールバック。
type ChatbotUsecase struct {
	productRepo repo.ProductRepository
	generator   TextGenerator
	log         *slog.Logger
}

func NewChatbotUsecase(productRepo repo.ProductRepository, generator TextGenerator, log *slog.Logger) *ChatbotUsecase {
	return &ChatbotUsecase{productRepo: productRepo, generator: generator, log: log}
}

type ChatProductMatch struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type ChatResponse struct {
	Response string             `json:"response"`
	Products []ChatProductMatch `json:"products,omitempty"`
}

func (u *ChatbotUsecase) Reply(ctx context.Context, message string) (ChatResponse, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return ChatResponse{}, NewHTTPError(http.StatusBadRequest, "invalid message")
	}

	//商品名の部分一致（大文字小文字無視）を先に試す
	if matches := u.matchProducts(ctx, msg); len(matches) > 0 {
		return ChatResponse{
			Response: "Here is what I found in our catalog:",
			Products: matches,
		}, nil
	}

	//カタログに無ければ外部の生成エンドポイントへ
	text, err := u.generator.Generate(ctx, msg)
	if err != nil {
		if errors.Is(err, chatbot.ErrUnavailable) {
			u.log.Warn("chatbot backend unavailable", "error", err)
			return ChatResponse{Response: chatbotUnavailableMessage}, nil
		}
		return ChatResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return ChatResponse{Response: text}, nil
}

// メッセージ中の単語で商品名を検索する。
// グローバルな商品リストは持たず、毎回カタログに問い合わせる。
func (u *ChatbotUsecase) matchProducts(ctx context.Context, msg string) []ChatProductMatch {
	seen := make(map[int64]bool)
	var matches []ChatProductMatch

	for _, word := range strings.Fields(msg) {
		word = strings.Trim(word, ".,!?")
		if len(word) <= 3 {
			continue
		}

		products, err := u.productRepo.SearchByName(ctx, word, 5)
		if err != nil {
			u.log.Warn("chatbot product search failed", "error", err)
			continue
		}
		for _, p := range products {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			matches = append(matches, ChatProductMatch{ID: p.ID, Name: p.Name, Price: p.Price})
		}
	}
	return matches
}
