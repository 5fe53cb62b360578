// Package main is the entry point for the operator console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/guardline/operator-console/internal/api"
	"github.com/guardline/operator-console/internal/assist"
	"github.com/guardline/operator-console/internal/auth"
	"github.com/guardline/operator-console/internal/config"
	"github.com/guardline/operator-console/internal/console"
	"github.com/guardline/operator-console/internal/notify"
	"github.com/guardline/operator-console/internal/ops"
	"github.com/guardline/operator-console/internal/transport"
	"github.com/guardline/operator-console/internal/tui"
	"github.com/guardline/operator-console/pkg/logger"
	"github.com/guardline/operator-console/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting operator console", zap.String("operator", cfg.OperatorName))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "operator-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Operator credential for the REST boundary
	tokens, err := auth.FromConfig(cfg.APIToken, cfg.JWTSecret, cfg.OperatorName, cfg.JWTExpiration)
	if err != nil {
		log.Error("failed to configure operator credential", zap.Error(err))
		os.Exit(1)
	}

	restClient, err := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, tokens)
	if err != nil {
		log.Error("failed to create REST client", zap.Error(err))
		os.Exit(1)
	}

	// Desktop notifications are best-effort; a nop notifier keeps the
	// flows identical when disabled.
	var notifier console.Notifier = notify.Nop{}
	if cfg.NotifyEnabled && !cfg.Headless {
		notifier = notify.NewDesktop("Guardline Chat")
	}

	// Optional reply drafting
	var drafter *assist.Drafter
	if cfg.AnthropicAPIKey != "" || cfg.OpenAIAPIKey != "" {
		provider, apiKey := assist.ProviderAnthropic, cfg.AnthropicAPIKey
		if apiKey == "" {
			provider, apiKey = assist.ProviderOpenAI, cfg.OpenAIAPIKey
		}
		client, err := assist.NewClient(provider, apiKey)
		if err != nil {
			log.Warn("failed to create assist client, drafting disabled", zap.Error(err))
		} else {
			drafter = assist.NewDrafter(client, cfg.AssistModel)
			log.Info("reply drafting enabled", zap.String("provider", client.Name()))
		}
	}

	// Live transport and reconciliation loop
	chat := transport.New(transport.Config{
		URL:          cfg.NATSURL,
		CAFile:       cfg.NATSCAFile,
		CertFile:     cfg.NATSCertFile,
		KeyFile:      cfg.NATSKeyFile,
		Token:        cfg.NATSToken,
		SubjectBase:  cfg.SubjectBase,
		OperatorName: cfg.OperatorName,
		ReplyTimeout: cfg.ReplyTimeout,
	}, log)

	cons := console.New(chat, restClient, notifier, cfg.OperatorName, log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		cons.Run(runCtx)
	}()

	if err := chat.Connect(runCtx, cons); err != nil {
		log.Error("failed to connect to messaging service", zap.Error(err))
		os.Exit(1)
	}
	defer chat.Close()

	// Ops server: health, metrics, read-only directory API
	var opsServer *ops.Server
	if cfg.OpsEnabled {
		opsServer = ops.NewServer(cfg, cons, log)
		go func() {
			log.Info("ops server listening", zap.String("addr", cfg.OpsAddr))
			if err := opsServer.Start(); err != nil {
				log.Error("ops server error", zap.Error(err))
			}
		}()
	}

	if cfg.Headless {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
	} else {
		program := tea.NewProgram(tui.New(cons, drafter), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			log.Error("UI error", zap.Error(err))
		}
	}

	log.Info("shutting down")

	cancel()
	<-consoleDone
	chat.Close()

	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server forced to shutdown", zap.Error(err))
		}
	}

	log.Info("console stopped")
}
