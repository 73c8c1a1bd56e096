package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/adversarial"
	"github.com/xela07ax/ai-governance-portal/internal/audit"
	"github.com/xela07ax/ai-governance-portal/internal/compliance"
	"github.com/xela07ax/ai-governance-portal/internal/console/handler"
	"github.com/xela07ax/ai-governance-portal/internal/console/server"
	"github.com/xela07ax/ai-governance-portal/internal/console/service"
	"github.com/xela07ax/ai-governance-portal/internal/engine"
	"github.com/xela07ax/ai-governance-portal/internal/infra"
	"github.com/xela07ax/ai-governance-portal/internal/infra/auth"
	"github.com/xela07ax/ai-governance-portal/internal/notify"
	"github.com/xela07ax/ai-governance-portal/internal/oracle"
	"github.com/xela07ax/ai-governance-portal/internal/policy"
	"github.com/xela07ax/ai-governance-portal/internal/repository/postgres"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the governance portal HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := infra.BuildLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	// 2. Ключевые слова политики (дефолты + YAML-переопределение)
	keywords := policy.Default()
	if cfg.Policy.KeywordsPath != "" {
		keywords, err = policy.Load(cfg.Policy.KeywordsPath)
		if err != nil {
			return fmt.Errorf("policy keywords: %w", err)
		}
		logger.Info("policy keywords loaded", zap.String("path", cfg.Policy.KeywordsPath))
	}

	// 3. Хранилище (Postgres) с проверкой соединения
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	pgRepo, err := postgres.New(pingCtx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		pingCancel()
		return fmt.Errorf("database: %w", err)
	}
	if err := pgRepo.Ping(pingCtx); err != nil {
		pingCancel()
		return fmt.Errorf("database unreachable: %w", err)
	}
	pingCancel()
	defer pgRepo.Close()

	// 4. Redis для сигналов решений
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// 5. RSA ключи (RS256)
	pubKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		return fmt.Errorf("auth public key: %w", err)
	}
	privKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return fmt.Errorf("auth private key: %w", err)
	}
	validator := auth.NewBaseValidator(pubKey)

	// 6. Оракул риска. Ядро ретраев не делает: декоратор надежности
	// включается явно через oracle.retry_attempts
	var assessor oracle.Assessor = oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout, logger)
	if cfg.Oracle.RetryAttempts > 0 {
		assessor = oracle.NewResilientAssessor(assessor, oracle.ResilienceConfig{
			Attempts:    cfg.Oracle.RetryAttempts,
			CallTimeout: cfg.Oracle.CallTimeout,
			RateLimit:   cfg.Oracle.RateLimit,
			RateBurst:   cfg.Oracle.RateBurst,
			CBInterval:  cfg.Oracle.CBInterval,
			CBTimeout:   cfg.Oracle.CBTimeout,
		})
		logger.Info("oracle resilience decorator enabled",
			zap.Int("attempts", cfg.Oracle.RetryAttempts))
	}

	// 7. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := engine.NewMetrics(reg)

	// 8. Журнал решений: данные летят в базу пачками
	trail := audit.NewTrail(pgRepo, cfg.Audit.BufferSize, cfg.Audit.BatchSize, cfg.Audit.FlushInterval, logger)
	trail.Start()
	defer trail.Stop()

	// Семплируем заполненность буфера журнала в метрику backpressure
	gaugeCtx, gaugeCancel := context.WithCancel(context.Background())
	defer gaugeCancel()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gaugeCtx.Done():
				return
			case <-ticker.C:
				metrics.TrailBufferFill.Set(float64(trail.Depth()))
			}
		}
	}()

	// 9. Сборка ядра и слоев (Dependency Injection)
	eng := engine.New(
		pgRepo,
		assessor,
		adversarial.NewScanner(keywords),
		compliance.NewMapper(keywords),
		trail,
		metrics,
		logger,
	)

	signaler := notify.NewSignaler(rdb, logger)
	usageSvc := service.NewUsageService(eng, pgRepo, signaler, logger)
	authSvc := service.NewAuthService(pgRepo, privKey)
	dashSvc := service.NewDashboardService(pgRepo)

	portal := server.NewPortalServer(
		cfg,
		logger,
		validator,
		handler.NewAuthHandler(authSvc),
		handler.NewUsageHandler(usageSvc, logger),
		handler.NewCardHandler(usageSvc),
		handler.NewDashboardHandler(dashSvc),
		reg,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      portal,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("governance portal started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("governance portal stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("governance portal exited properly")
	return nil
}
