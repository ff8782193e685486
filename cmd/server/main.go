package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/service"
	"github.com/restobooks/vendor-recon/internal/config"
	"github.com/restobooks/vendor-recon/internal/infrastructure/external/openai"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/repository"
	"github.com/restobooks/vendor-recon/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/restobooks/vendor-recon/internal/interfaces/http"
	"github.com/restobooks/vendor-recon/internal/matching"
	"github.com/restobooks/vendor-recon/pkg/database"
	"github.com/restobooks/vendor-recon/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(logging.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting vendor statement reconciliation service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and the transaction manager
	txm := sqlite.NewDB(db.DB, logger)
	statementRepo := repository.NewStatementRepository(db.DB, logger)
	lineRepo := repository.NewLineRepository(db.DB, logger)
	resultRepo := repository.NewMatchResultRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)

	// Build the deterministic matching pipeline
	params := matchingParams(cfg.Matching)
	if err := params.Validate(); err != nil {
		logger.Fatal("Invalid matching parameters", zap.Error(err))
	}
	normalizer := matching.NewNormalizer()
	scorer := matching.NewScorer(params, normalizer)
	retriever := matching.NewRetriever(invoiceRepo, params)
	policy := matching.NewPolicy(params)
	engine := matching.NewEngine(retriever, scorer, policy)

	// Initialize the semantic matcher collaborator
	semantic := openai.NewMatcher(openai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)

	// Application services
	serviceLogger := newKVLogger(logger)
	ingestionService := service.NewIngestionService(txm, statementRepo, lineRepo, resultRepo, engine, serviceLogger)
	reconcileService := service.NewReconcileService(
		txm, statementRepo, lineRepo, resultRepo, invoiceRepo,
		engine, policy, semantic, cfg.Matching.AssistCandidates, serviceLogger,
	)

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, ingestionService, reconcileService, serviceLogger)

	// Run until interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// matchingParams maps configuration onto the matching pipeline parameters.
func matchingParams(cfg config.MatchingConfig) matching.Params {
	return matching.Params{
		AutoThreshold:      cfg.AutoThreshold,
		ReviewThreshold:    cfg.ReviewThreshold,
		DateWindowDays:     cfg.DateWindowDays,
		AmountTolerancePct: cfg.AmountTolerancePct,
		CandidateCap:       cfg.CandidateCap,
		TextWeight:         cfg.TextWeight,
		AmountWeight:       cfg.AmountWeight,
		DateWeight:         cfg.DateWeight,
	}
}

// kvLogger adapts the zap logger to the key/value logging interface the
// service and HTTP layers depend on.
type kvLogger struct {
	sugar *zap.SugaredLogger
}

func newKVLogger(logger *zap.Logger) *kvLogger {
	return &kvLogger{sugar: logger.Sugar()}
}

func (l *kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
