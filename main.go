package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/how-als/how-als/internal/analysis"
	"github.com/how-als/how-als/internal/config"
	"github.com/how-als/how-als/internal/llm"
	"github.com/how-als/how-als/internal/server"
	"github.com/how-als/how-als/internal/storage"
	"github.com/how-als/how-als/internal/telegram"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		config.SetupLogging(os.Stderr, "info", "console")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	generator := newGenerator(ctx, cfg)

	opts := []analysis.Option{analysis.WithTimeout(cfg.AnalysisTimeout)}
	if cfg.JournalPath != "" {
		journal, err := storage.NewJournal(cfg.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.JournalPath).Msg("failed to open analysis journal")
		}
		defer journal.Close()
		opts = append(opts, analysis.WithRecorder(journal))
		log.Info().Str("path", cfg.JournalPath).Msg("analysis journal enabled")
	}
	analyzer := analysis.NewAnalyzer(cfg.GeminiAPIKey, generator, opts...)

	g, ctx := errgroup.WithContext(ctx)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           server.NewHandler(analyzer, cfg.MaxRequestBodySize),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.TelegramBotToken != "" {
		tg, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		tg.Debug = false
		log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")
		telegram.RegisterCommands(tg)

		g.Go(func() error {
			return runBot(ctx, tg, analyzer)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// newGenerator returns nil when the credential is unusable; the analyzer then
// answers every request with a configuration error instead of calling out.
func newGenerator(ctx context.Context, cfg *config.Config) llm.Generator {
	if err := analysis.CheckCredential(cfg.GeminiAPIKey); err != nil {
		log.Warn().Err(err).Msg("GEMINI_API_KEY missing or malformed, analysis requests will fail")
		return nil
	}
	generator, err := llm.New(ctx, cfg.GeneratorOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model client")
	}
	log.Info().
		Str("transport", cfg.GeminiTransport).
		Str("model", cfg.GeminiModel).
		Msg("model client initialized")
	return generator
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, analyzer *analysis.Analyzer) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	b := telegram.NewBot(tg, analyzer)
	err := b.Run(ctx, updates)
	tg.StopReceivingUpdates()
	return err
}
