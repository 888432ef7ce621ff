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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/logging"
	"github.com/Zephony/zephony-go/middleware"
	"github.com/Zephony/zephony-go/routes"
	"github.com/Zephony/zephony-go/service"
)

var rootCmd = &cobra.Command{
	Use:           "zephony",
	Short:         "Contacts API and tooling built on the zephony helpers",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// bootstrap loads configuration, installs the logger and opens the database
// with every migration applied
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	return cfg, logger, db, nil
}

func newMailer(cfg *config.Config) service.Mailer {
	if cfg.MailgunURL != "" {
		return service.NewMailgunMailer(cfg.Mailgun(), cfg.Env, cfg.TemplateDir)
	}
	return service.NewSMTPMailer(cfg.SMTP(), cfg.Env, cfg.TemplateDir)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	importLimiter := middleware.NewRateLimiter(5, 15*time.Minute)
	defer importLimiter.Stop()
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	router := routes.NewRouter(routes.Deps{
		DB:            db,
		Config:        cfg,
		Logger:        logger,
		Mailer:        newMailer(cfg),
		SMS:           service.NewSMSSender(cfg.Twilio(), cfg.Env, nil),
		Uploader:      service.NewUploader(cfg.UploadFolder),
		ImportLimiter: importLimiter,
		LoginLimiter:  loginLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
