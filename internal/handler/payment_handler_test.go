package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateCheckoutSessionRequest_BindsProductsKey(t *testing.T) {
	//クライアントはproductsキーで送ってくる
	body := `{"products":[{"product_id":1,"quantity":2}],"coupon_code":"SAVE10","provider":"stripe"}`

	var req CreateCheckoutSessionRequest
	assert.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Len(t, req.Products, 1)
	assert.Equal(t, int64(1), req.Products[0].ProductID)
	assert.Equal(t, int64(2), req.Products[0].Quantity)
	assert.Equal(t, "SAVE10", req.CouponCode)
	assert.Equal(t, "stripe", req.Provider)
}

func TestCheckoutSuccessRequest_StrategyFields(t *testing.T) {
	var roundTrip CheckoutSuccessRequest
	assert.NoError(t, json.Unmarshal([]byte(`{"session_id":"cs_123"}`), &roundTrip))
	assert.Empty(t, roundTrip.PaymentID)
	assert.Empty(t, roundTrip.Signature)

	var signed CheckoutSuccessRequest
	assert.NoError(t, json.Unmarshal([]byte(`{"session_id":"order_1","payment_id":"pay_1","signature":"ab12"}`), &signed))
	assert.Equal(t, "pay_1", signed.PaymentID)
	assert.Equal(t, "ab12", signed.Signature)
}
