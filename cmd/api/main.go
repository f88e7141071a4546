package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carelink/clinical-core/cmd/mainconfig"
	"github.com/carelink/clinical-core/internal/access"
	"github.com/carelink/clinical-core/internal/api/router"
	"github.com/carelink/clinical-core/internal/audit"
	"github.com/carelink/clinical-core/internal/clinical"
	appconfig "github.com/carelink/clinical-core/internal/config"
	"github.com/carelink/clinical-core/internal/council"
	"github.com/carelink/clinical-core/internal/http/handlers"
	"github.com/carelink/clinical-core/internal/observability/metrics"
	"github.com/carelink/clinical-core/internal/patients"
	"github.com/carelink/clinical-core/internal/reports"
	"github.com/carelink/clinical-core/internal/vault"
	"github.com/carelink/clinical-core/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinical-core API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	cipher, err := vault.NewCipher(cfg.VaultKeyHex)
	if err != nil {
		logger.Error("VAULT_KEY is missing or invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	coreMetrics := metrics.NewCoreMetrics(prometheus.DefaultRegisterer)

	// Audit trail: relational when a database is configured, otherwise the
	// bounded in-memory trail with optional S3 archival of evicted entries.
	var trail audit.Trail
	var querier handlers.AuditQuerier
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open audit database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgTrail := audit.NewPostgresTrail(db)
		trail, querier = pgTrail, pgTrail
	} else {
		var archiver audit.Archiver
		if cfg.AuditArchiveBucket != "" {
			archiver = audit.NewS3Archiver(s3.NewFromConfig(awsCfg), cfg.AuditArchiveBucket, logger)
		}
		memTrail := audit.NewMemoryTrail(cfg.AuditMaxEntries, archiver, logger)
		trail, querier = memTrail, memTrail
	}

	engine := access.NewEngine(access.DefaultRules(), trail, logger).WithObserver(coreMetrics)

	// Report storage mirrors the audit choice.
	var repo reports.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open report database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = reports.NewPostgresRepository(pool, cipher)
	} else {
		repo = reports.NewMemoryRepository(cipher)
	}

	// Locked ids ride two write paths: the Redis set (when configured) plus
	// the local journal replayed at startup.
	wal, err := reports.OpenWALLockedSet(cfg.LockedWALPath)
	if err != nil {
		logger.Error("failed to open locked-report journal", "path", cfg.LockedWALPath, "error", err)
		os.Exit(1)
	}
	defer wal.Close()

	var locked reports.LockedSet = wal
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		defer client.Close()
		locked = reports.NewDualLockedSet(reports.NewRedisLockedSet(client), wal, logger)
	} else {
		logger.Warn("REDIS_ADDR not set; locked-report ids persist only in the local journal")
	}

	reportSvc := reports.NewService(repo, locked, engine, logger).WithObserver(coreMetrics)

	// Token vault: DynamoDB when a table is configured.
	var tokenStore patients.TokenStore
	if cfg.PatientTokensTable != "" {
		tokenStore = patients.NewDynamoTokenStore(dynamodb.NewFromConfig(awsCfg), cfg.PatientTokensTable)
	} else {
		logger.Warn("PATIENT_TOKENS_TABLE not set; patient tokens are not durable")
		tokenStore = patients.NewMemoryTokenStore()
	}
	tokenizer := patients.NewTokenizer(tokenStore, cipher, engine, logger)

	providers := buildProviders(ctx, cfg, awsCfg, logger)
	orchestrator := council.NewOrchestrator(cfg.ProviderTimeout, logger, council.WithMetrics(coreMetrics))
	clinicalSvc := clinical.NewService(engine, orchestrator, providers, reportSvc, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ClinicalHandler:    handlers.NewClinicalHandler(clinicalSvc, logger),
		ReportsHandler:     handlers.NewReportsHandler(reportSvc, logger),
		PatientsHandler:    handlers.NewPatientsHandler(tokenizer, logger),
		AuditHandler:       handlers.NewAuditHandler(querier, engine, logger),
		MetricsHandler:     promhttp.Handler(),
		ClinicianJWTSecret: cfg.ClinicianJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildProviders seats the council. The local heuristics hold every seat
// by default; the Bedrock and Gemini adapters replace theirs when
// configured, so a missing vendor key degrades one seat instead of the
// whole council.
func buildProviders(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) []council.Provider {
	diagnosis := council.Provider(council.LocalDiagnosisProvider{})
	if cfg.BedrockModelID != "" {
		bedrock, err := council.NewBedrockDiagnosisProvider(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			logger.Error("bedrock provider unavailable, using local diagnosis heuristics", "error", err)
		} else {
			diagnosis = bedrock
		}
	}

	narrative := council.Provider(council.LocalNarrativeProvider{})
	if cfg.GeminiAPIKey != "" {
		gemini, err := council.NewGeminiNarrativeProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("gemini provider unavailable, using local narrative heuristics", "error", err)
		} else {
			narrative = gemini
		}
	}

	return []council.Provider{diagnosis, council.LocalRiskProvider{}, narrative}
}
