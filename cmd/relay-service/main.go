package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianpay/relay-payment-service/internal/app/background"
	"github.com/meridianpay/relay-payment-service/internal/client"
	"github.com/meridianpay/relay-payment-service/internal/config"
	"github.com/meridianpay/relay-payment-service/internal/delivery/http/handlers"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/chain"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/forwarder"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/kafka"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/metrics"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/migrate"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/postgres/repository"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/redis"
	"github.com/meridianpay/relay-payment-service/internal/infrastructure/relayer"
	"github.com/meridianpay/relay-payment-service/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, "migrations"); err != nil {
		log.Printf("migrations skipped: %v", err)
	}

	// Init cache
	cache := redis.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLSeconds)*time.Second)

	// Init chain backend
	ethClient, err := ethclient.Dial(cfg.Chain.RpcURL)
	if err != nil {
		log.Fatalf("failed to dial chain rpc: %v", err)
	}
	codec := forwarder.NewCodec(cfg.Chain.ForwarderAddress, cfg.Chain.ChainID)
	chainReader := chain.NewReader(ethClient, cfg.Chain.SettlementAddress)

	// Init relay executor
	store := relayer.NewTxStore()
	relayService, err := relayer.NewService(ethClient, cfg.Relayer.PrivateKey, codec, store, relayer.Options{
		ChainID:           cfg.Chain.ChainID,
		ConfirmationDelay: time.Duration(cfg.Chain.ConfirmationDelaySec) * time.Second,
		ReceiptTimeout:    time.Duration(cfg.Chain.ReceiptTimeoutMs) * time.Millisecond,
		PollInterval:      time.Duration(cfg.Chain.PollIntervalMs) * time.Millisecond,
		DefaultGasLimit:   cfg.Chain.DefaultGasLimit,
	})
	if err != nil {
		log.Fatalf("failed to init relay service: %v", err)
	}

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	eventPublisher := kafka.NewKafkaPublisher(brokers, "payment-events")

	paymentMetrics := metrics.NewPaymentMetrics()

	// Init payment repo
	paymentRepo := repository.NewDefaultPaymentRepository(db)
	// Init token repo
	tokenRepo := repository.NewDefaultTokenRepository(db)

	// Init relay client
	relayClient := client.NewRelayClient(cfg.Relayer.RelayURL, cfg.Relayer.APIKey)

	// Init payment usecase
	uc := usecase.NewDefaultPaymentUsecase(
		paymentRepo,
		tokenRepo,
		cache,
		chainReader,
		chainReader,
		relayClient,
		codec,
		eventPublisher,
		paymentMetrics,
	)

	// HTTP server
	r := gin.Default()
	handlers.NewRelayHandler(relayService, codec).Register(r)
	handlers.NewPaymentHandler(uc).Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasks := background.NewBackgroundTasks(uc, relayService, paymentMetrics)
	tasks.StartAll(context.Background())

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	log.Printf("HTTP server started on %s\n", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}
