package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/handler"
	"github.com/zhouzirui/peoplemap/backend/internal/logging"
	"github.com/zhouzirui/peoplemap/backend/internal/model/person"
	"github.com/zhouzirui/peoplemap/backend/internal/service/chat"
	"github.com/zhouzirui/peoplemap/backend/internal/service/directory"
	"github.com/zhouzirui/peoplemap/backend/internal/storage/messages"
	"github.com/zhouzirui/peoplemap/backend/internal/storage/sheets"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Directory source: the spreadsheet when configured, otherwise an empty in-memory sheet
	var source person.Source
	if cfg.Sheets.Enabled() {
		sheetSource, err := sheets.New(ctx, cfg.Sheets, logger.Named("sheets"))
		if err != nil {
			logger.Fatal("failed to initialize sheets source", zap.Error(err))
		}
		source = sheetSource
		logger.Info("directory backed by google sheets",
			zap.String("spreadsheet", cfg.Sheets.SpreadsheetID),
			zap.String("range", cfg.Sheets.Range))
	} else {
		source = person.NewMemorySource()
		logger.Warn("SHEETS_SPREADSHEET_ID not set, using in-memory directory")
	}

	store, err := messages.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to open chat store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	logger.Info("chat store ready", zap.String("driver", cfg.Store.Driver))

	directorySvc := directory.NewService(source, logger.Named("directory"))
	chatSvc := chat.NewService(store, chat.NewHub(logger.Named("hub")), logger.Named("chat"))

	router := handler.NewRouter(handler.Deps{
		Directory: directorySvc,
		Chat:      chatSvc,
		Relay:     cfg.Relay,
		CORS:      cfg.CORS,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := runServer(ctx, srv, logger); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(closeCtx); err != nil {
		logger.Warn("failed to close chat store", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("peoplemap backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
