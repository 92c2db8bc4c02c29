package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/config"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/postgres"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
	"github.com/ariefcatur/go-catalog-orders/internal/reports"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &reports.Service{
		Repo:        &catalog.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-reports",
	}

	// Consumer
	group := getenv("REPORTS_GROUP", "reports-svc")
	workers := mustAtoi(os.Getenv("REPORTS_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, catalog.TopicOrderItemAdded, workers)

	go func() {
		log.Printf("reports consumer started: group=%s topic=%s workers=%d", group, catalog.TopicOrderItemAdded, workers)
		if err := cons.Start(ctx, svc.HandleOrderItemAdded); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
