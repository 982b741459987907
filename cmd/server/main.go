package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kedai-qr/api/internal/cart"
	"github.com/kedai-qr/api/internal/config"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/events"
	"github.com/kedai-qr/api/internal/handler"
	"github.com/kedai-qr/api/internal/router"
	"github.com/kedai-qr/api/internal/service"
	"github.com/kedai-qr/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Unable to migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	publishers := events.Multi{events.NewHubPublisher(hub)}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Printf("WARNING: event broker disabled: %v", err)
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
			log.Println("Publishing events to AMQP exchange", events.Exchange)
		}
	}

	// Interface values stay nil unless Redis is reachable.
	var cartStore handler.CartStore
	var cartClearer service.CartClearer
	if cfg.RedisURL != "" {
		client, err := cart.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: cart storage disabled: %v", err)
		} else {
			defer client.Close()
			store := cart.NewStore(client, cfg.QRTokenTTL)
			cartStore = store
			cartClearer = store
		}
	}

	svc := router.Services{
		Sessions: service.NewSessionService(queries, cfg.QRTokenTTL),
		Orders: service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
			return database.New(db)
		}, publishers, cartClearer, cfg.QRTokenTTL),
		Payments: service.NewPaymentService(pool, func(db database.DBTX) service.PaymentStore {
			return database.New(db)
		}, publishers, cfg.QRTokenTTL, cfg.PaymentExpiry),
		Carts: cartStore,
	}

	if cfg.ExpirySweepInterval > 0 {
		go svc.Payments.RunExpirySweeper(ctx, cfg.ExpirySweepInterval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, queries, hub, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
	hub.Shutdown()
}
