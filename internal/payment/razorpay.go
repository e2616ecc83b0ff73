package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Razorpay風のオーダーAPI。検証はHMAC署名（sessionID|paymentID）。
type RazorpayProvider struct {
	apiBase   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayProvider(apiBase, keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{
		apiBase:   strings.TrimRight(apiBase, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *RazorpayProvider) Name() string { return "razorpay" }

type razorpayOrderResponse struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes"`
}

func (p *RazorpayProvider) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	//金額は呼び出し側の割引後合計をそのまま使う（ここで再計算しない）
	body := map[string]interface{}{
		"amount":   in.AmountTotal,
		"currency": "INR",
		"receipt":  in.ReceiptID,
		"notes":    in.Metadata,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Session{}, err
	}

	var resp razorpayOrderResponse
	if err := p.do(ctx, http.MethodPost, "/v1/orders", bytes.NewReader(raw), &resp); err != nil {
		return Session{}, err
	}

	return Session{
		ID:            resp.ID,
		PaymentStatus: mapRazorpayStatus(resp.Status),
		AmountTotal:   resp.Amount,
		Metadata:      resp.Notes,
	}, nil
}

func (p *RazorpayProvider) FetchSession(ctx context.Context, sessionID string) (Session, error) {
	var resp razorpayOrderResponse
	path := "/v1/orders/" + url.PathEscape(sessionID)
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Session{}, err
	}
	return Session{
		ID:            resp.ID,
		PaymentStatus: mapRazorpayStatus(resp.Status),
		AmountTotal:   resp.Amount,
		Metadata:      resp.Notes,
	}, nil
}

// HMAC-SHA256(secret, sessionID|paymentID) を定数時間で比較する。
func (p *RazorpayProvider) VerifyCallback(sessionID string, paymentID string, signature string) error {
	mac := hmac.New(sha256.New, []byte(p.keySecret))
	mac.Write([]byte(sessionID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

func mapRazorpayStatus(s string) string {
	if s == "paid" {
		return PaymentStatusPaid
	}
	return s
}

func (p *RazorpayProvider) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, p.apiBase+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(p.keyID, p.keySecret)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("razorpay response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("razorpay status %d: %s", res.StatusCode, truncate(raw, 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("razorpay decode: %w", err)
	}
	return nil
}
