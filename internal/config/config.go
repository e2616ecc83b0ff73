package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // JWT署名シークレット

	GoEnv     string // dev/prod
	ClientURL string // フロントURL（決済のリダイレクト先で使う）

	RedisAddr     string // Redisアドレス（featuredキャッシュ）
	RedisPassword string

	StripeSecretKey string // Stripe APIキー
	StripeAPIBase   string // Stripe APIベースURL（テストで差し替える）

	RazorpayKeyID     string // Razorpay key id
	RazorpayKeySecret string // Razorpay secret（コールバック署名の検証にも使う）
	RazorpayAPIBase   string

	RewardThreshold int64 // この金額以上でギフトクーポン発行（最小通貨単位）
	RewardPercent   int64 // ギフトクーポンの割引率
	RewardDays      int   // ギフトクーポンの有効日数

	ChatbotAPIURL   string // 推論エンドポイント（空ならキーワード検索のみ）
	ChatbotAPIToken string
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:     os.Getenv("GO_ENV"),
		ClientURL: os.Getenv("CLIENT_URL"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		StripeAPIBase:   getenv("STRIPE_API_BASE", "https://api.stripe.com"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayAPIBase:   getenv("RAZORPAY_API_BASE", "https://api.razorpay.com"),

		ChatbotAPIURL:   os.Getenv("CHATBOT_API_URL"),
		ChatbotAPIToken: os.Getenv("CHATBOT_API_TOKEN"),
	}

	//ギフトクーポンの設定（デフォルトあり）
	cfg.RewardThreshold, err = getenvInt64("REWARD_THRESHOLD", 20000)
	if err != nil {
		return Config{}, err
	}
	cfg.RewardPercent, err = getenvInt64("REWARD_PERCENT", 10)
	if err != nil {
		return Config{}, err
	}
	days, err := getenvInt64("REWARD_DAYS", 30)
	if err != nil {
		return Config{}, err
	}
	cfg.RewardDays = int(days)

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.ClientURL == "" {
		return Config{}, fmt.Errorf("CLIENT_URL is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.RazorpayKeyID == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID is required")
	}
	if cfg.RazorpayKeySecret == "" {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
