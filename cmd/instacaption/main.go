package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"

	"github.com/shouni/insta-caption-kit/pkg/adapters"
	"github.com/shouni/insta-caption-kit/pkg/config"
	"github.com/shouni/insta-caption-kit/pkg/generator"
	"github.com/shouni/insta-caption-kit/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("起動に失敗しました", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogFormat)

	// API キーが無ければ入力を受け付ける前に停止する
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	captioner, err := newCaptioner(ctx, cfg)
	if err != nil {
		return err
	}

	svc, err := generator.NewCaptionService(adapters.NewCaptionCore(cfg.PromptTemplate), captioner, generator.Options{SplitOptions: cfg.SplitOptions})
	if err != nil {
		return err
	}

	handler, err := web.NewCaptionHandler(svc, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します", "addr", cfg.ListenAddr, "backend", cfg.Backend)
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

	slog.Info("シャットダウンします")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TimeoutDuration()+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCaptioner(ctx context.Context, cfg *config.Config) (adapters.Captioner, error) {
	switch cfg.Backend {
	case config.BackendREST:
		return adapters.NewRESTCaptioner(cfg.Endpoint, cfg.APIKey, httpkit.New(cfg.TimeoutDuration()))
	case config.BackendSDK:
		client, err := adapters.NewGenAIClient(ctx, cfg.APIKey, cfg.BaseURL, &http.Client{Timeout: cfg.TimeoutDuration()})
		if err != nil {
			return nil, err
		}
		return adapters.NewGenAICaptioner(client.Models, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown backend: %q", cfg.Backend)
	}
}

func setupLogger(format string) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
