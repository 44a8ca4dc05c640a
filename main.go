package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-pos/config"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/messaging"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/printing"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetJWTSecret(cfg.JWTSecret)
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	printers, err := config.LoadPrinters(cfg.PrintersFile)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load printers: %v", err)
	}
	utils.InfoLogger.WithField("count", len(printers)).Info("printers loaded")

	core := services.NewCore(db, services.ParseAddItemsPolicy(cfg.AddItemsPolicy))
	hub := kds.NewHub()
	// event disimpan ke outbox supaya relay bisa meneruskan ke RabbitMQ walau broker sedang mati
	dispatcher := services.NewDispatcher(hub, services.NewOutboxWriter(db))

	r := router.SetupRouter(router.Deps{
		Core:        core,
		Events:      dispatcher,
		Hub:         hub,
		Printers:    printing.NewRouter(printers),
		Sink:        &printing.SpoolSink{Dir: cfg.PrintSpoolDir},
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.AMQPURL != "" {
		publisher, err := messaging.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()

		relay := services.NewOutboxRelay(db, publisher)
		relay.Interval = cfg.OutboxInterval
		g.Go(func() error {
			return relay.Run(gctx)
		})
	} else {
		utils.InfoLogger.Warn("AMQP_URL not set, outbox events stay in the database")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		utils.InfoLogger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		dispatcher.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		utils.ErrorLogger.Fatalf("server stopped: %v", err)
	}
}
