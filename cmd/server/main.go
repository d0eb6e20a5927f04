package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taogeht/reading-practice-app-sub000/internal/auth"
	"github.com/taogeht/reading-practice-app-sub000/internal/config"
	"github.com/taogeht/reading-practice-app-sub000/internal/db"
	internalhttp "github.com/taogeht/reading-practice-app-sub000/internal/http"
	"github.com/taogeht/reading-practice-app-sub000/internal/jobs"
	"github.com/taogeht/reading-practice-app-sub000/internal/repository"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis ping failed: %v", err)
	}
	cancel()
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}()

	store := repository.NewStore(pool)
	sessions := auth.NewSessions(store, store, cfg.SessionTTL)
	tracker := auth.NewChallengeTracker(redisClient, cfg.ChallengeTTL)

	server := internalhttp.NewServer(cfg, store, sessions, tracker)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartSessionSweepJob(ctx, cfg, sessions)

	go func() {
		log.Printf("reading-practice server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
