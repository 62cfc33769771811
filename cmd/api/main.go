package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment/boltstore"
	"github.com/MrJamesThe3rd/grantledger/internal/attachment/gcs"
	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/grantledger/internal/budget/store"
	"github.com/MrJamesThe3rd/grantledger/internal/category"
	"github.com/MrJamesThe3rd/grantledger/internal/config"
	"github.com/MrJamesThe3rd/grantledger/internal/database"
	"github.com/MrJamesThe3rd/grantledger/internal/export"
	ledgerHttp "github.com/MrJamesThe3rd/grantledger/internal/http"
	attachmentHandler "github.com/MrJamesThe3rd/grantledger/internal/http/attachment"
	exportHandler "github.com/MrJamesThe3rd/grantledger/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/grantledger/internal/http/importsheet"
	ledgerHandler "github.com/MrJamesThe3rd/grantledger/internal/http/ledger"
	matchingHandler "github.com/MrJamesThe3rd/grantledger/internal/http/matching"
	"github.com/MrJamesThe3rd/grantledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/grantledger/internal/importer"
	"github.com/MrJamesThe3rd/grantledger/internal/logger"
	"github.com/MrJamesThe3rd/grantledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/grantledger/internal/matching/store"
)

// exportTokenTTL bounds the token the export service uses to fetch proofs
// served by this API.
const exportTokenTTL = 24 * time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(logger.WithContext(ctx, log), db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	matcher := category.Default()
	if cfg.Import.RulesPath != "" {
		if matcher, err = category.LoadRules(cfg.Import.RulesPath); err != nil {
			return fmt.Errorf("loading category rules: %w", err)
		}
	}

	var (
		attachments budget.AttachmentStore
		served      *attachmentHandler.Handler
	)

	switch cfg.Attachments.Backend {
	case config.AttachmentsGCS:
		store, err := gcs.New(ctx, cfg.Attachments.GCSBucket, cfg.Attachments.URLTTL)
		if err != nil {
			return fmt.Errorf("opening gcs attachments: %w", err)
		}
		defer store.Close()

		attachments = store
	default:
		store, err := boltstore.New(cfg.Attachments.BoltPath, cfg.Attachments.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("opening bolt attachments: %w", err)
		}
		defer store.Close()

		attachments = store
		served = attachmentHandler.NewHandler(store)
	}

	var exportToken string
	if cfg.Auth.JWTSecret != "" {
		if exportToken, err = middleware.IssueToken([]byte(cfg.Auth.JWTSecret), "export", exportTokenTTL); err != nil {
			return fmt.Errorf("issuing export token: %w", err)
		}
	}

	var (
		ledgerService   = budget.NewService(budgetStore.New(db), matcher, attachments)
		matchingService = matching.NewService(matchingStore.New(db))
		importService   = importer.NewService()
		exportService   = export.NewService(ledgerService, exportToken)
	)

	router := ledgerHttp.New(ledgerHttp.Options{
		Log:            log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, ledgerHttp.Handlers{
		Ledger:      ledgerHandler.NewHandler(ledgerService, cfg.MaxUploadBytes()),
		Import:      importHandler.NewHandler(importService, ledgerService, matchingService, cfg.MaxUploadBytes(), cfg.Import.Workers),
		Matching:    matchingHandler.NewHandler(matchingService),
		Export:      exportHandler.NewHandler(exportService, ledgerService),
		Attachments: served,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("attachments", cfg.Attachments.Backend).Msg("starting server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
