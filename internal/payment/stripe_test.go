package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripe_CreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "Mug", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "250", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "7", r.PostForm.Get("metadata[user_id]"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_123",
			"payment_status": "unpaid",
			"amount_total":   250,
			"metadata":       map[string]string{"user_id": "7"},
		})
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test_123")
	sess, err := p.CreateSession(context.Background(), CreateSessionInput{
		LineItems:  []LineItem{{Name: "Mug", UnitAmount: 250, Quantity: 1}},
		SuccessURL: "http://client/success",
		CancelURL:  "http://client/cancel",
		Metadata:   map[string]string{"user_id": "7"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "cs_123", sess.ID)
	assert.Equal(t, int64(250), sess.AmountTotal)
}

func TestStripe_CreateSession_AttachesDiscountCoupon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())

		switch r.URL.Path {
		case "/v1/coupons":
			assert.Equal(t, "10", r.PostForm.Get("percent_off"))
			assert.Equal(t, "once", r.PostForm.Get("duration"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "coupon_10"})
		case "/v1/checkout/sessions":
			//割引がセッションに載っていないと満額請求になる
			assert.Equal(t, "coupon_10", r.PostForm.Get("discounts[0][coupon]"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":             "cs_456",
				"payment_status": "unpaid",
				"amount_total":   225,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test_123")
	sess, err := p.CreateSession(context.Background(), CreateSessionInput{
		LineItems:          []LineItem{{Name: "Mug", UnitAmount: 250, Quantity: 1}},
		DiscountPercentage: 10,
		AmountTotal:        225,
	})
	assert.NoError(t, err)
	assert.Equal(t, "cs_456", sess.ID)
	assert.Equal(t, int64(225), sess.AmountTotal)
}

func TestStripe_CreateSession_CouponCreateFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/coupons" {
			http.Error(w, `{"error":{"message":"invalid percent_off"}}`, http.StatusBadRequest)
			return
		}
		t.Errorf("session must not be created when the coupon fails: %s", r.URL.Path)
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test_123")
	_, err := p.CreateSession(context.Background(), CreateSessionInput{
		LineItems:          []LineItem{{Name: "Mug", UnitAmount: 250, Quantity: 1}},
		DiscountPercentage: 10,
		AmountTotal:        225,
	})
	assert.Error(t, err)
}

func TestStripe_FetchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_123",
			"payment_status": "paid",
			"amount_total":   225,
			"metadata": map[string]string{
				"user_id":  "7",
				"products": `[{"id":1,"quantity":1,"price":250}]`,
			},
		})
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test_123")
	sess, err := p.FetchSession(context.Background(), "cs_123")
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, sess.PaymentStatus)
	assert.Equal(t, "7", sess.Metadata["user_id"])
}

func TestStripe_VerifyCallback_Unsupported(t *testing.T) {
	p := NewStripeProvider("http://unused", "sk_test_123")
	assert.ErrorIs(t, p.VerifyCallback("cs_123", "pay_1", "sig"), ErrUnsupportedVerification)
}

func TestStripe_FetchSession_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"no such session"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewStripeProvider(srv.URL, "sk_test_123")
	_, err := p.FetchSession(context.Background(), "cs_missing")
	assert.Error(t, err)
}
