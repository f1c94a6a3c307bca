package config

import (
	"os"
	"strconv"
	"time"
)

// Config is everything the process reads from the environment.
// main loads .env via godotenv before calling Load.
type Config struct {
	Port        string
	DatabaseURL string

	OpenAIAPIKey string
	OpenAIModel  string

	SinchAPIURL        string
	SinchServicePlanID string
	SinchAPIToken      string
	SinchWebhookSecret string
	SMSFromNumber      string

	ChatAPIURL        string
	ChatAPIToken      string
	ChatWebhookSecret string

	BooksAPIURL         string
	BooksAPIToken       string
	BookshopAffiliateID string

	ProfileAPIURL   string
	ProfileAPIToken string

	MaxHistory           int
	ConversationTimeout  time.Duration
	RateLimit            int
	RateLimitWindow      time.Duration
	RateLimitBurst       int
	RateLimitBurstWindow time.Duration
	MaxChunkLength       int
	MessageDelay         time.Duration
	ContextCharBudget    int
	TurnTimeout          time.Duration

	StoreOpenHour  int
	StoreCloseHour int
	StoreTimezone  string
}

// Load reads configuration from the environment, falling back to
// defaults for everything except credentials.
func Load() Config {
	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("OPENAI_MODEL"),

		SinchAPIURL:        getenv("SINCH_API_URL", "https://us.sms.api.sinch.com"),
		SinchServicePlanID: os.Getenv("SINCH_SERVICE_PLAN_ID"),
		SinchAPIToken:      os.Getenv("SINCH_API_TOKEN"),
		SinchWebhookSecret: os.Getenv("SINCH_WEBHOOK_SECRET"),
		SMSFromNumber:      os.Getenv("SMS_FROM_NUMBER"),

		ChatAPIURL:        getenv("CHAT_API_URL", "https://app.chatra.io/api"),
		ChatAPIToken:      os.Getenv("CHAT_API_TOKEN"),
		ChatWebhookSecret: os.Getenv("CHAT_WEBHOOK_SECRET"),

		BooksAPIURL:         getenv("BOOKS_API_URL", "https://api.hardcover.app/v1/graphql"),
		BooksAPIToken:       os.Getenv("BOOKS_API_TOKEN"),
		BookshopAffiliateID: os.Getenv("BOOKSHOP_AFFILIATE_ID"),

		ProfileAPIURL:   os.Getenv("PROFILE_API_URL"),
		ProfileAPIToken: os.Getenv("PROFILE_API_TOKEN"),

		MaxHistory:           getint("MAX_HISTORY", 10),
		ConversationTimeout:  getdur("CONVERSATION_TIMEOUT", 3*time.Hour),
		RateLimit:            getint("RATE_LIMIT", 10),
		RateLimitWindow:      getdur("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBurst:       getint("RATE_LIMIT_BURST", 100),
		RateLimitBurstWindow: getdur("RATE_LIMIT_BURST_WINDOW", time.Hour),
		MaxChunkLength:       getint("MAX_CHUNK_LENGTH", 150),
		MessageDelay:         getdur("SMS_MESSAGE_DELAY", 500*time.Millisecond),
		ContextCharBudget:    getint("CONTEXT_CHAR_BUDGET", 2000),
		TurnTimeout:          getdur("TURN_TIMEOUT", 30*time.Second),

		StoreOpenHour:  getint("STORE_OPEN_HOUR", 9),
		StoreCloseHour: getint("STORE_CLOSE_HOUR", 21),
		StoreTimezone:  getenv("STORE_TIMEZONE", "America/New_York"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getdur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
