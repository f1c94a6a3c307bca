package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/dungeonbooks/marty/internal/ai"
	"github.com/dungeonbooks/marty/internal/books"
	"github.com/dungeonbooks/marty/internal/bot"
	"github.com/dungeonbooks/marty/internal/chat"
	"github.com/dungeonbooks/marty/internal/config"
	"github.com/dungeonbooks/marty/internal/conversation"
	"github.com/dungeonbooks/marty/internal/delivery"
	"github.com/dungeonbooks/marty/internal/profile"
	"github.com/dungeonbooks/marty/internal/ratelimit"
	"github.com/dungeonbooks/marty/internal/segment"
	"github.com/dungeonbooks/marty/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	if err := conversation.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema error: %v", err)
	}

	// --- Conversation state ---
	repo := conversation.NewRepo(db)
	store := conversation.NewStore(repo, cfg.MaxHistory, cfg.ConversationTimeout)
	builder := conversation.NewContextBuilder(store, cfg.MaxHistory, cfg.ContextCharBudget)
	limiter := ratelimit.New(cfg.RateLimit, cfg.RateLimitWindow,
		cfg.RateLimitBurst, cfg.RateLimitBurstWindow)

	// --- Outbound providers ---
	aiClient := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	var finder books.Finder
	if cfg.BooksAPIToken != "" {
		finder = books.NewClient(cfg.BooksAPIURL, cfg.BooksAPIToken)
	}
	var profiles profile.Provider
	if cfg.ProfileAPIURL != "" {
		profiles = profile.NewClient(cfg.ProfileAPIURL, cfg.ProfileAPIToken)
	}

	// --- Channels ---
	var channels []bot.Channel

	if cfg.SinchServicePlanID != "" {
		smsTransport := sms.NewClient(cfg.SinchAPIURL, cfg.SinchServicePlanID,
			cfg.SinchAPIToken, cfg.SMSFromNumber)
		smsDispatcher, err := delivery.NewDispatcher(smsTransport, store, cfg.MessageDelay)
		if err != nil {
			log.Fatalf("sms dispatcher: %v", err)
		}
		channels = append(channels, bot.Channel{
			Name:       bot.ChannelSMS,
			Dispatcher: smsDispatcher,
			Transport:  smsTransport,
			MaxChunk:   cfg.MaxChunkLength,
			Filter:     segment.GSM7,
		})
	}

	if cfg.ChatAPIToken != "" {
		chatTransport := chat.NewClient(cfg.ChatAPIURL, cfg.ChatAPIToken)
		chatDispatcher, err := delivery.NewDispatcher(chatTransport, store, 0)
		if err != nil {
			log.Fatalf("chat dispatcher: %v", err)
		}
		channels = append(channels, bot.Channel{
			Name:       bot.ChannelChat,
			Dispatcher: chatDispatcher,
			Transport:  chatTransport,
			MaxChunk:   cfg.MaxChunkLength,
		})
	}

	if len(channels) == 0 {
		log.Fatal("no delivery channel configured")
	}

	loc, err := time.LoadLocation(cfg.StoreTimezone)
	if err != nil {
		log.Fatalf("store timezone: %v", err)
	}
	hours := bot.Hours{Open: cfg.StoreOpenHour, Close: cfg.StoreCloseHour, Loc: loc}

	svc := bot.NewService(limiter, store, builder, aiClient, finder, profiles,
		hours, cfg.BookshopAffiliateID, channels...)
	handler := bot.NewHandler(svc, cfg.SinchWebhookSecret, cfg.ChatWebhookSecret, cfg.TurnTimeout)

	// --- Background sweeps ---
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for range t.C {
			if n := store.SweepExpired(context.Background()); n > 0 {
				log.Printf("[sweep] retired %d conversations", n)
			}
			if n := limiter.CleanupStale(cfg.RateLimitBurstWindow); n > 0 {
				log.Printf("[sweep] dropped %d rate limit entries", n)
			}
		}
	}()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Webhook-Secret", "X-Sinch-Signature"},
	}))

	bot.RegisterRoutes(r, handler)

	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "db down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	log.Printf("listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
