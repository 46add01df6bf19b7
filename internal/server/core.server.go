package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"settlement-service/internal/config"
	"settlement-service/internal/handler"
	"settlement-service/internal/middleware"
	"settlement-service/internal/pkg/pricing"
	"settlement-service/internal/provider/gateway"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/internal/router"
	"settlement-service/internal/service"
	"settlement-service/internal/usecase"
	"settlement-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func NewSettlementHTTPServer(cfg config.AppConfig) {
	// --- DB connection ---
	dbpool, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	sf, err := utils.NewSnowflake(21)
	if err != nil {
		log.Fatalf("failed to init snowflake: %v", err)
	}
	refgen := utils.NewRefGenerator(sf)

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// --- Redis client ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})

	// --- Kafka writer (event fan-out) ---
	kafkaWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	defer kafkaWriter.Close()

	// --- Payment gateway client ---
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, zlog)

	// --- Repositories ---
	bookingRepo := repository.NewBookingRepo(dbpool)
	payeeRepo := repository.NewPayeeRepo(dbpool)
	escrowRepo := repository.NewEscrowRepo(dbpool)
	refundRepo := repository.NewRefundRepo(dbpool)
	loyaltyRepo := repository.NewLoyaltyRepo(dbpool)
	connectRepo := repository.NewConnectRepo(dbpool)
	policyRepo := repository.NewPolicyRepo(dbpool)

	// --- Usecases ---
	pub := publisher.NewSettlementEventPublisher(rdb, kafkaWriter)
	clock := usecase.NewRealClock()

	connectUC := usecase.NewConnectUsecase(connectRepo, gw, refgen, clock)
	escrowUC := usecase.NewEscrowUsecase(escrowRepo, bookingRepo, payeeRepo, connectUC, gw, pub, refgen, clock, cfg.EscrowHoldDays)
	loyaltyUC := usecase.NewLoyaltyUsecase(loyaltyRepo, pub, refgen, clock, cfg.CreditExpiryDays)

	splitCalc := pricing.NewSplitCalculator(cfg.PlatformFeePercent)
	builder := pricing.NewBreakdownBuilder(cfg.MinServicePrice, cfg.PlatformFeePercent)

	settlementUC := usecase.NewSettlementUsecase(
		bookingRepo, payeeRepo, refundRepo, policyRepo,
		escrowUC, loyaltyUC,
		splitCalc, builder,
		gw, pub, rdb, refgen, clock,
	)

	// --- Background release sweep ---
	worker := service.NewReleaseWorker(escrowUC, time.Duration(cfg.ReleaseSweepMinutes)*time.Minute)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.Run(rootCtx)

	// --- HTTP server ---
	h := handler.NewSettlementHandler(settlementUC, escrowUC, connectUC, loyaltyUC)
	auth := middleware.NewAuth(cfg.JWTSecret)

	r := chi.NewRouter()
	router.SetupRoutes(r, h, auth)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("http shutdown", zap.Error(err))
		}
	}()

	log.Printf("Settlement HTTP server listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server failed: %v", err)
	}
}
