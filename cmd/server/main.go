package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warungpay/backend/internal/cache"
	"warungpay/backend/internal/config"
	"warungpay/backend/internal/httpapi"
	"warungpay/backend/internal/realtime"
	"warungpay/backend/internal/remote"
	"warungpay/backend/internal/service"
	"warungpay/backend/internal/store"
	"warungpay/backend/internal/store/memory"
	pgstore "warungpay/backend/internal/store/postgres"
	"warungpay/backend/internal/wallet"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var snaps store.Snapshots
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		snaps = pg
		closers = append(closers, pg.Close)
		log.Println("snapshots: postgres")
	} else {
		snaps = memory.New()
		log.Println("snapshots: in-memory")
	}

	txCache := cache.TransactionCache(cache.NoopTransactionCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisTransactionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			txCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	walletClient := remote.NewWalletClient(cfg.WalletAPIURL)
	usersClient := remote.NewUsersClient(cfg.UsersAPIURL)
	payClient := remote.NewPayClient(cfg.PayAPIURL)

	bus := realtime.NewBus()
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if cfg.RelayURL != "" {
		relay := realtime.NewRelay(cfg.RelayURL, cfg.RelayToken, bus)
		go relay.Run(relayCtx)
		log.Printf("relay: %s", cfg.RelayURL)
	} else {
		log.Println("relay: disabled")
	}

	walletSvc := wallet.NewService(walletClient, txCache,
		time.Duration(cfg.TxCacheTTLSeconds)*time.Second, cfg.TxFetchLimit)
	sessions := service.NewSessions(snaps, usersClient, payClient, bus, walletSvc)

	verifier := httpapi.NewVerifier(cfg.AuthSecret)
	api := httpapi.New(sessions, walletSvc, verifier, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("dashboard backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	stopRelay()
	sessions.Close()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
