// Command embedsvc runs the embed metadata HTTP service: it loads TOML
// config, assembles the tiered cache and singleflight coordinator, wires
// the site extractor roster in front of the generic catch-all, and
// serves spec.md §6's single POST endpoint until signaled to shut down.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/applog"
	"github.com/riverlink/embedsvc/internal/cachestore"
	"github.com/riverlink/embedsvc/internal/coalesce"
	"github.com/riverlink/embedsvc/internal/config"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/extract/sites"
	"github.com/riverlink/embedsvc/internal/httpapi"
	"github.com/riverlink/embedsvc/internal/svcmetrics"
	"github.com/riverlink/embedsvc/internal/tieredcache"
	"github.com/riverlink/embedsvc/internal/useragent"
)

const shutdownDrainTimeout = time.Second // spec.md §5: drain with a 1s deadline

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("EMBED_CONFIG_PATH")
	if configPath == "" {
		return errors.New("EMBED_CONFIG_PATH must be set")
	}
	svc, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := applog.New(svc.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	signingKey, err := loadSigningKey(svc.Extract.Signed)
	if err != nil {
		return err
	}

	backends, err := buildBackends(svc, logger)
	if err != nil {
		return fmt.Errorf("build cache backends: %w", err)
	}

	cache := tieredcache.New(logger, backends...)
	coordinator := coalesce.New(cache, logger, svc.CacheSize)

	client := &http.Client{
		Timeout:   svc.Timeout,
		Transport: useragent.Set(http.DefaultTransport, svc.Extract.UserAgents["default"]),
	}

	state := &extract.State{
		Client:     client,
		Config:     svc.Extract,
		Logger:     logger,
		SigningKey: signingKey,
	}

	registry := extract.NewRegistry(
		sites.Bluesky{},
		sites.E621{},
		sites.Imgur{},
		sites.Wikipedia{},
		sites.DeviantArt{},
		sites.FurAffinity{},
		sites.Inkbunny{},
		sites.GoogleMaps{},
		extract.Generic{},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := registry.Setup(ctx, state); err != nil {
		return fmt.Errorf("extractor setup: %w", err)
	}

	reg := prometheus.NewRegistry()
	metrics := svcmetrics.New(reg)

	handler := &httpapi.Handler{
		Coordinator: coordinator,
		Registry:    registry,
		State:       state,
		Metrics:     metrics,
		Logger:      logger,
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", svcmetrics.Handler(reg))

	addr := os.Getenv("EMBED_BIND_ADDRESS")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-sigCh:
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown did not complete cleanly", zap.Error(err))
	}
	cache.Shutdown(shutdownCtx)
	return nil
}

func buildBackends(svc *config.Service, logger *zap.Logger) ([]cachestore.Backend, error) {
	backends := make([]cachestore.Backend, 0, len(svc.CacheBackends))
	for _, decl := range svc.CacheBackends {
		b, err := cachestore.New(decl.Kind, decl.Options, logger)
		if err != nil {
			return nil, fmt.Errorf("backend %q: %w", decl.Kind, err)
		}
		backends = append(backends, b)
	}
	if len(backends) == 0 {
		backends = append(backends, cachestore.NewMemoryBackend(svc.CacheSize))
	}
	return backends, nil
}

// loadSigningKey reads CAMO_SIGNING_KEY (hex) per spec.md §6, required
// iff media signing is enabled.
func loadSigningKey(signed bool) ([]byte, error) {
	hexKey := os.Getenv("CAMO_SIGNING_KEY")
	if hexKey == "" {
		if signed {
			return nil, errors.New("CAMO_SIGNING_KEY must be set when signed=true")
		}
		return nil, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("CAMO_SIGNING_KEY: invalid hex: %w", err)
	}
	return key, nil
}
