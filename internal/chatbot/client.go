package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// 推論エンドポイントが使えないとき
var ErrUnavailable = errors.New("chatbot backend unavailable")

// 外部のテキスト生成エンドポイントを叩く薄いクライアント。
type Client struct {
	apiURL string
	token  string
	client *http.Client
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate は入力テキストをそのまま転送して生成結果を返す。
func (c *Client) Generate(ctx context.Context, message string) (string, error) {
	if c.apiURL == "" {
		return "", ErrUnavailable
	}

	raw, err := json.Marshal(generateRequest{Inputs: message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		//配列で返す実装もある
		var arr []generateResponse
		if err2 := json.Unmarshal(body, &arr); err2 == nil && len(arr) > 0 {
			return arr[0].GeneratedText, nil
		}
		return "", fmt.Errorf("%w: bad response", ErrUnavailable)
	}
	if out.GeneratedText == "" {
		return "I'm not sure how to respond.", nil
	}
	return out.GeneratedText, nil
}
