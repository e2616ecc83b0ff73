package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/payment"
	repo "app/internal/repository"
)

// ギフトクーポンの発行条件
type RewardPolicy struct {
	Threshold int64 // この金額以上で発行（最小通貨単位）
	Percent   int64
	Days      int
}

// CheckoutUsecase はセッション作成と決済確認のオーケストレーション。
// 注文はセッション作成時にPENDINGで永続化し、検証済みの確認でだけPAIDにする。
type CheckoutUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	couponRepo  repo.CouponRepository
	providers   map[string]payment.Provider
	clientURL   string
	reward      RewardPolicy
	idGen       IDGenerator
	clock       Clock
	log         *slog.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	productRepo repo.ProductRepository,
	couponRepo repo.CouponRepository,
	providers map[string]payment.Provider,
	clientURL string,
	reward RewardPolicy,
	idGen IDGenerator,
	clock Clock,
	log *slog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:          tx,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		providers:   providers,
		clientURL:   clientURL,
		reward:      reward,
		idGen:       idGen,
		clock:       clock,
		log:         log,
	}
}

type CheckoutItemInput struct {
	ProductID int64
	Quantity  int64
}

type CreateCheckoutSessionInput struct {
	Items      []CheckoutItemInput
	CouponCode string
	Provider   string // 省略時はstripe
}

type CreateCheckoutSessionOutput struct {
	SessionID   string `json:"session_id"`
	TotalAmount int64  `json:"total_amount"`
}

// metadataに入れる明細（確認時にクライアント入力を信用しないための控え）
type metadataItem struct {
	ID       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
	Price    int64 `json:"price"`
}

const (
	metaKeyUserID     = "user_id"
	metaKeyCouponCode = "coupon_code"
	metaKeyProducts   = "products"
)

func (u *CheckoutUsecase) CreateSession(ctx context.Context, userID int64, in CreateCheckoutSessionInput) (CreateCheckoutSessionOutput, error) {
	if userID <= 0 {
		return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "empty cart")
	}

	providerName := in.Provider
	if providerName == "" {
		providerName = "stripe"
	}
	provider, ok := u.providers[providerName]
	if !ok {
		return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid provider")
	}

	//正価はサーバー側で取り直す（クライアントの価格は信用しない）
	var subtotal int64 = 0
	lineItems := make([]payment.LineItem, 0, len(in.Items))
	metaItems := make([]metadataItem, 0, len(in.Items))
	orderItems := make([]model.OrderItem, 0, len(in.Items))
	now := u.clock.Now()

	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if item.Quantity < model.CartQuantityMin || item.Quantity > model.CartQuantityMax {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}

		p, err := u.productRepo.FindByID(ctx, item.ProductID)
		if err == repo.ErrNotFound {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product")
		}

		subtotal += p.Price * item.Quantity

		lineItems = append(lineItems, payment.LineItem{
			Name:       p.Name,
			Image:      p.Image,
			UnitAmount: p.Price,
			Quantity:   item.Quantity,
		})
		metaItems = append(metaItems, metadataItem{ID: p.ID, Quantity: item.Quantity, Price: p.Price})
		orderItems = append(orderItems, model.OrderItem{
			ProductID:           p.ID,
			ProductNameSnapshot: p.Name,
			UnitPriceSnapshot:   p.Price,
			Quantity:            item.Quantity,
			CreatedAt:           now,
		})
	}

	//クーポン（code+user+activeの1件、期限切れは無効）
	var discountPct int64 = 0
	couponCode := strings.TrimSpace(in.CouponCode)
	if couponCode != "" {
		c, err := u.couponRepo.FindActiveByCodeAndUserID(ctx, couponCode, userID)
		if err == repo.ErrNotFound {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
		}
		if err != nil {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if c.IsExpired(now) {
			return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
		}
		discountPct = c.DiscountPercentage
	}

	discount := ComputeDiscount(subtotal, discountPct)
	total := subtotal - discount

	itemsJSON, err := json.Marshal(metaItems)
	if err != nil {
		return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//プロバイダのセッション作成。作成は冪等でないのでリトライしない。
	sess, err := provider.CreateSession(ctx, payment.CreateSessionInput{
		LineItems:          lineItems,
		SuccessURL:         u.clientURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          u.clientURL + "/purchase-cancel",
		DiscountPercentage: discountPct,
		AmountTotal:        total,
		ReceiptID:          u.idGen.NewID(),
		Metadata: map[string]string{
			metaKeyUserID:     strconv.FormatInt(userID, 10),
			metaKeyCouponCode: couponCode,
			metaKeyProducts:   string(itemsJSON),
		},
	})
	if err != nil {
		u.log.Error("provider session create failed", "provider", providerName, "error", err)
		return CreateCheckoutSessionOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}

	//注文はPENDINGで先に作る（セッションIDが冪等キー）
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:            userID,
			Status:            model.OrderStatusPending,
			TotalAmount:       total,
			Provider:          model.PaymentProvider(providerName),
			ProviderSessionID: sess.ID,
			CouponCode:        couponCode,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return CreateCheckoutSessionOutput{}, err
	}

	//高額購入はギフトクーポン発行（失敗してもチェックアウトは成功させる）
	if total >= u.reward.Threshold {
		if err := u.issueRewardCoupon(ctx, userID); err != nil {
			u.log.Error("reward coupon issue failed", "user_id", userID, "error", err)
		}
	}

	return CreateCheckoutSessionOutput{SessionID: sess.ID, TotalAmount: total}, nil
}

// 既存クーポンを消してから新しいGIFTクーポンを1枚発行する。
func (u *CheckoutUsecase) issueRewardCoupon(ctx context.Context, userID int64) error {
	if err := u.couponRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	code := "GIFT" + strings.ToUpper(strings.ReplaceAll(u.idGen.NewID(), "-", "")[:6])
	now := u.clock.Now()

	_, err := u.couponRepo.Create(ctx, model.Coupon{
		Code:               code,
		DiscountPercentage: u.reward.Percent,
		UserID:             userID,
		IsActive:           true,
		ExpirationDate:     now.AddDate(0, 0, u.reward.Days),
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	return err
}

type ConfirmOutput struct {
	Success bool   `json:"success"`
	OrderID int64  `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ConfirmBySession はセッション再取得方式の確認（Stripe系）。
// プロバイダが申告するpayment_statusを信用し、ローカルの注文をPAIDへ遷移させる。
func (u *CheckoutUsecase) ConfirmBySession(ctx context.Context, sessionID string) (ConfirmOutput, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "invalid session_id")
	}

	providerName := "stripe"
	var existing model.Order
	var found bool

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		existing, found, err = r.Orders().FindByProviderSessionID(ctx, sessionID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return ConfirmOutput{}, err
	}
	if found {
		providerName = string(existing.Provider)
	}

	provider, ok := u.providers[providerName]
	if !ok {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "invalid provider")
	}

	sess, err := provider.FetchSession(ctx, sessionID)
	if err != nil {
		u.log.Error("provider session fetch failed", "provider", providerName, "error", err)
		return ConfirmOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider error")
	}
	if sess.PaymentStatus != payment.PaymentStatusPaid {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "payment verification failed")
	}

	return u.settle(ctx, sess, "")
}

type ConfirmSignatureInput struct {
	SessionID string
	PaymentID string
	Signature string
}

// ConfirmBySignature は署名方式の確認（Razorpay系）。
// 署名不一致なら一切の書き込みをしない。
func (u *CheckoutUsecase) ConfirmBySignature(ctx context.Context, in ConfirmSignatureInput) (ConfirmOutput, error) {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.PaymentID) == "" || strings.TrimSpace(in.Signature) == "" {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	provider, ok := u.providers["razorpay"]
	if !ok {
		return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "invalid provider")
	}

	if err := provider.VerifyCallback(in.SessionID, in.PaymentID, in.Signature); err != nil {
		if errors.Is(err, payment.ErrSignatureMismatch) {
			return ConfirmOutput{}, NewHTTPError(http.StatusBadRequest, "payment verification failed")
		}
		return ConfirmOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//署名が正しければローカルのPENDING注文を確定する
	return u.settle(ctx, payment.Session{ID: in.SessionID, PaymentStatus: payment.PaymentStatusPaid}, in.PaymentID)
}

// settle は検証済みのセッションを注文確定に反映する。
// 冪等: 既にPAIDなら何も書かずに成功を返す。クーポンの無効化は条件付き更新。
func (u *CheckoutUsecase) settle(ctx context.Context, sess payment.Session, paymentID string) (ConfirmOutput, error) {
	var out ConfirmOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, found, err := r.Orders().FindByProviderSessionID(ctx, sess.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if !found {
			//ローカルに注文がないセッション。metadataから復元する（再取得方式のフォールバック）。
			order, err = u.restoreFromMetadata(ctx, r, sess)
			if err != nil {
				return err
			}
		}

		transitioned, err := r.Orders().MarkPaidIfPending(ctx, order.ID, paymentID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if transitioned {
			//初回確定のときだけクーポンを消し込み、カートを空にする
			if order.CouponCode != "" {
				if _, err := r.Coupons().DeactivateIfActive(ctx, order.CouponCode, order.UserID); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
			if err := r.CartItems().DeleteByUserID(ctx, order.UserID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = ConfirmOutput{
			Success: true,
			OrderID: order.ID,
			Message: "payment successful, order processed",
		}
		return nil
	})
	if err != nil {
		return ConfirmOutput{}, err
	}
	return out, nil
}

// metadataに控えた明細から注文を復元する。クライアント入力は使わない。
func (u *CheckoutUsecase) restoreFromMetadata(ctx context.Context, r repo.TxRepos, sess payment.Session) (model.Order, error) {
	userID, err := strconv.ParseInt(sess.Metadata[metaKeyUserID], 10, 64)
	if err != nil || userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "unknown session")
	}

	var metaItems []metadataItem
	if err := json.Unmarshal([]byte(sess.Metadata[metaKeyProducts]), &metaItems); err != nil || len(metaItems) == 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "unknown session")
	}

	now := u.clock.Now()
	items := make([]model.OrderItem, 0, len(metaItems))
	for _, mi := range metaItems {
		name := ""
		if p, err := r.Products().FindByID(ctx, mi.ID); err == nil {
			name = p.Name
		}
		items = append(items, model.OrderItem{
			ProductID:           mi.ID,
			ProductNameSnapshot: name,
			UnitPriceSnapshot:   mi.Price,
			Quantity:            mi.Quantity,
			CreatedAt:           now,
		})
	}

	order := model.Order{
		UserID:            userID,
		Status:            model.OrderStatusPending,
		TotalAmount:       sess.AmountTotal,
		Provider:          model.ProviderStripe,
		ProviderSessionID: sess.ID,
		CouponCode:        sess.Metadata[metaKeyCouponCode],
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	orderID, err := r.Orders().Create(ctx, order)
	if err != nil {
		//同時確認で先に作られた場合はそれを使う
		if o2, found2, err2 := r.Orders().FindByProviderSessionID(ctx, sess.ID); err2 == nil && found2 {
			return o2, nil
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	order.ID = orderID

	if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return order, nil
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Status      string            `json:"status"`
	TotalAmount int64             `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

func (u *CheckoutUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}
	return OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
