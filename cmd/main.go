package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"tg-link-service/internal/app"
	"tg-link-service/internal/config"
	"tg-link-service/internal/delivery"
	"tg-link-service/internal/service"
	"tg-link-service/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("tg-link-service", pflag.ContinueOnError)
	configPath := flags.String("config", "", "optional YAML config file (default $CONFIG_PATH)")
	tenantsPath := flags.String("tenants", "", "tenant registry file (overrides TENANTS_PATH)")
	envFile := flags.String("env-file", ".env", "dotenv file to load")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of tg-link-service:\n%s\n%s", flags.FlagUsages(), config.Usage())
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	envLoadErr := godotenv.Load(*envFile)

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		return err
	}
	if *tenantsPath != "" {
		cfg.TenantsPath = *tenantsPath
	}

	logger, closeLog, err := setupLogger(cfg.Env, cfg.LogDir)
	if err != nil {
		return err
	}
	defer closeLog()

	if envLoadErr != nil {
		logger.Warn(".env file not found, using system environment variables", "file", *envFile)
	} else {
		logger.Info("environment variables loaded from .env file", "file", *envFile)
	}

	tenants, err := config.LoadTenants(cfg.TenantsPath)
	if err != nil {
		logger.Error("tenant registry not loaded, exiting", "path", cfg.TenantsPath, "error", err)
		return err
	}

	partner, err := service.NewPartnerClient(tenants, service.NewSessionStore(), service.PartnerClientConfig{
		URLPattern: cfg.Partner.URLPattern,
		HTTPClient: &http.Client{Timeout: cfg.Partner.Timeout},
		Logger:     logger.With("component", "partner"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	partner.AuthenticateAll(ctx)
	_, authenticated := partner.Status()
	logger.Info("tenants authenticated", "tenants", tenants.Len(), "authenticated", authenticated)

	bot, err := telegram.NewBot(telegram.Config{
		BotToken:  cfg.Telegram.BotToken,
		APIID:     cfg.Telegram.APIID,
		APIHash:   cfg.Telegram.APIHash,
		DataDir:   cfg.Telegram.DataDir,
		Verbosity: cfg.Telegram.Verbosity,
	}, logger.With("component", "telegram"))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	defer bot.Close()

	links := service.NewLinkService(partner, logger.With("component", "link"))
	startHandler := delivery.NewStartHandler(links, bot, logger.With("component", "start"))

	codes := service.NewCodeDeliveryService(bot, cfg.APISecret, logger.With("component", "delivery"))
	handler := delivery.NewHandler(codes, partner, logger.With("component", "http"))
	server := delivery.NewServer(delivery.NewApp(handler, logger), cfg.Addr(), logger)

	err = app.Supervise(ctx, logger,
		app.Task{Name: "http", Run: server.Run},
		app.Task{Name: "bot", Run: func(ctx context.Context) error {
			return bot.Run(ctx, startHandler.Handle)
		}},
	)
	if err != nil {
		return err
	}
	logger.Info("exit")
	return nil
}

// setupLogger: JSON для prod, текст с Debug для dev; при logDir дублирует в файл дня
func setupLogger(env, logDir string) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
		}
		name := filepath.Join(logDir, time.Now().Format("2006-01-02")+".log")
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { _ = f.Close() }
	}

	var logger *slog.Logger
	switch env {
	case config.EnvDev:
		logger = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	slog.SetDefault(logger)

	return logger, closeFn, nil
}
