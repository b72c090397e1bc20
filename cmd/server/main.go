package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/smartcard/internal/config"
	"github.com/hongminglow/smartcard/internal/deals"
	"github.com/hongminglow/smartcard/internal/dealsource"
	"github.com/hongminglow/smartcard/internal/events"
	"github.com/hongminglow/smartcard/internal/merchants"
	"github.com/hongminglow/smartcard/internal/recommend"
	"github.com/hongminglow/smartcard/internal/server"
	"github.com/hongminglow/smartcard/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatalf("load tuning: %v", err)
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer store.Close()

	catalog, err := merchants.Load(ctx, cfg)
	if err != nil {
		log.Fatalf("load merchants: %v", err)
	}

	var source dealsource.Source = dealsource.Static{}
	if cfg.GeminiAPIKey != "" {
		source = dealsource.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		log.Println("GEMINI_API_KEY not set; serving sample deals")
	}

	var publisher events.Publisher = events.Discard{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("close event publisher: %v", err)
		}
	}()

	srv := server.New(cfg, tuning, server.Deps{
		Store:       store,
		Finder:      deals.NewService(catalog, source, tuning.Deals),
		Recommender: recommend.NewService(catalog, store, store, tuning.Recommend),
		Publisher:   publisher,
		Merchants:   catalog.Len(),
	})

	go func() {
		log.Printf("SmartCard backend listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
