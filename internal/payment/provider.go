package payment

import (
	"context"
	"errors"
)

// 決済プロバイダ共通のセッション表現。
// IDは不透明な識別子、金額は最小通貨単位。
type Session struct {
	ID            string
	PaymentStatus string // "paid"など、プロバイダの申告値
	AmountTotal   int64
	Metadata      map[string]string
}

type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type CreateSessionInput struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	// 割引率と割引後合計。合計は呼び出し側で丸め済み（最小通貨単位）。
	// プロバイダ側で金額を再計算してはいけない。
	DiscountPercentage int64
	AmountTotal        int64
	ReceiptID          string
	Metadata           map[string]string
}

var (
	//署名が一致しない
	ErrSignatureMismatch = errors.New("signature mismatch")
	//このプロバイダでは使わない検証方式
	ErrUnsupportedVerification = errors.New("verification method not supported")
)

// プロバイダごとの差分はこのインターフェースの後ろに隠す。
// 検証は2方式: セッション再取得（FetchSession）か署名（VerifyCallback）。
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, in CreateSessionInput) (Session, error)
	FetchSession(ctx context.Context, sessionID string) (Session, error)
	VerifyCallback(sessionID string, paymentID string, signature string) error
}

const PaymentStatusPaid = "paid"
