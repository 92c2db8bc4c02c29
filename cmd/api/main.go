package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/config"
	"github.com/ariefcatur/go-catalog-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/postgres"
	"github.com/ariefcatur/go-catalog-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, catalog.TopicOrderItemAdded, 1024)
	prod.Start(ctx)

	// Repo & handlers
	repo := &catalog.Repo{DB: db}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:     repo,
		Producer: prod,
		Service:  cfg.ServiceName,
	}
	ch := &httpx.CatalogHandler{
		Repo:  repo,
		Redis: rdb,
	}
	if cfg.APIPrefix != "" {
		router.Route(cfg.APIPrefix, func(r chi.Router) {
			oh.Register(r)
			ch.Register(r)
		})
	} else {
		oh.Register(router)
		ch.Register(router)
	}

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("%s %s listening at %s (prefix=%q)", cfg.ServiceName, cfg.ServiceVersion, cfg.HTTPAddr, cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
