package main

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"app/internal/chatbot"
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/payment"
	"app/internal/server"
	"app/internal/usecase"
	auth "app/internal/usecase/auth_usecase"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// 画像の外部ホストは未接続。削除はベストエフォートなので何もしない。
type noopMediaStore struct{}

func (s *noopMediaStore) Delete(ctx context.Context, imageRef string) error {
	return nil
}

func main() {
	//.envは無くてもいい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.Init("api", "logs/api.log")

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartItem{},
		&model.Coupon{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		panic(err)
	}

	//Redis（featuredキャッシュ）
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	featuredCache := cache.NewFeaturedProductCache(rdb, time.Hour)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 24 * time.Hour,
	}

	//決済プロバイダ
	providers := map[string]payment.Provider{
		"stripe":   payment.NewStripeProvider(cfg.StripeAPIBase, cfg.StripeSecretKey),
		"razorpay": payment.NewRazorpayProvider(cfg.RazorpayAPIBase, cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
	}

	//chatbot（URL未設定ならキーワード検索のみで応答する）
	botClient := chatbot.NewClient(cfg.ChatbotAPIURL, cfg.ChatbotAPIToken)

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	productUC := usecase.NewProductUsecase(productRepo, featuredCache, &noopMediaStore{}, logging.New("product"))
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo, clock, logging.New("coupon"))
	checkoutUC := usecase.NewCheckoutUsecase(
		txManager,
		productRepo,
		couponRepo,
		providers,
		cfg.ClientURL,
		usecase.RewardPolicy{
			Threshold: cfg.RewardThreshold,
			Percent:   cfg.RewardPercent,
			Days:      cfg.RewardDays,
		},
		idGen,
		clock,
		logging.New("checkout"),
	)
	analyticsUC := usecase.NewAnalyticsUsecase(analyticsRepo, clock)
	chatbotUC := usecase.NewChatbotUsecase(productRepo, botClient, logging.New("chatbot"))

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Seller:       handler.NewSellerHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Coupon:       handler.NewCouponHandler(couponUC),
		Payment:      handler.NewPaymentHandler(checkoutUC),
		Order:        handler.NewOrderHandler(checkoutUC),
		Analytics:    handler.NewAnalyticsHandler(analyticsUC),
		Chatbot:      handler.NewChatbotHandler(chatbotUC),
	}

	//Server起動
	e := server.New(cfg.ClientURL)
	server.RegisterRoutes(e, cfg, handlers)

	log.Info("server starting", "port", cfg.Port, "env", cfg.GoEnv)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		panic(err)
	}
}
