package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Stripe風のホスト型チェックアウト。検証はセッション再取得で行う。
type StripeProvider struct {
	apiBase   string
	secretKey string
	client    *http.Client
}

func NewStripeProvider(apiBase, secretKey string) *StripeProvider {
	return &StripeProvider{
		apiBase:   strings.TrimRight(apiBase, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

type stripeSessionResponse struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

func (p *StripeProvider) CreateSession(ctx context.Context, in CreateSessionInput) (Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)

	for i, li := range in.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "inr")
		form.Set(prefix+"[price_data][product_data][name]", li.Name)
		if li.Image != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", li.Image)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(li.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(li.Quantity, 10))
	}

	//割引はStripe側のクーポンとしてセッションに載せる。
	//載せ忘れるとローカルの注文額と請求額がずれる。
	if in.DiscountPercentage > 0 {
		couponID, err := p.createCoupon(ctx, in.DiscountPercentage)
		if err != nil {
			return Session{}, err
		}
		form.Set("discounts[0][coupon]", couponID)
	}

	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var resp stripeSessionResponse
	if err := p.do(ctx, http.MethodPost, "/v1/checkout/sessions", strings.NewReader(form.Encode()), true, &resp); err != nil {
		return Session{}, err
	}

	return Session{
		ID:            resp.ID,
		PaymentStatus: resp.PaymentStatus,
		AmountTotal:   resp.AmountTotal,
		Metadata:      resp.Metadata,
	}, nil
}

type stripeCouponResponse struct {
	ID string `json:"id"`
}

// セッション単位の使い捨てクーポンを作る。
func (p *StripeProvider) createCoupon(ctx context.Context, percentOff int64) (string, error) {
	form := url.Values{}
	form.Set("percent_off", strconv.FormatInt(percentOff, 10))
	form.Set("duration", "once")

	var resp stripeCouponResponse
	if err := p.do(ctx, http.MethodPost, "/v1/coupons", strings.NewReader(form.Encode()), true, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (p *StripeProvider) FetchSession(ctx context.Context, sessionID string) (Session, error) {
	var resp stripeSessionResponse
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := p.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return Session{}, err
	}
	return Session{
		ID:            resp.ID,
		PaymentStatus: resp.PaymentStatus,
		AmountTotal:   resp.AmountTotal,
		Metadata:      resp.Metadata,
	}, nil
}

// Stripe側は署名コールバックを使わない（再取得で検証する）。
func (p *StripeProvider) VerifyCallback(sessionID string, paymentID string, signature string) error {
	return ErrUnsupportedVerification
}

func (p *StripeProvider) do(ctx context.Context, method, path string, body io.Reader, form bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, p.apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if form {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("stripe response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("stripe status %d: %s", res.StatusCode, truncate(raw, 200))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("stripe decode: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
