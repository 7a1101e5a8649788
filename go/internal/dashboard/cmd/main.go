package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mktsim/tickops/go/clients/convex"
	"github.com/mktsim/tickops/go/internal/dashboard"
)

// Config is the optional dashboard.yaml file; env variables override it.
type Config struct {
	Addr            string   `yaml:"addr"`
	PollIntervalSec int      `yaml:"poll_interval_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:            ":8082",
		PollIntervalSec: int(dashboard.DefaultPollInterval / time.Second),
		AllowedOrigins:  []string{"*"},
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if addr := os.Getenv("DASHBOARD_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if v := os.Getenv("DASHBOARD_POLL_INTERVAL_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.PollIntervalSec = sec
		}
	}
	return cfg, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig("dashboard.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	deploymentURL, err := convex.ResolveDeploymentURL()
	if err != nil {
		log.Fatal().Err(err).Msg("backend endpoint not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := convex.NewClient(deploymentURL)
	provider := dashboard.NewConvexStateProvider(client)

	service := dashboard.NewService(dashboard.Config{
		ConnectionConfig: dashboard.DefaultConnectionConfig(),
		PollInterval:     time.Duration(cfg.PollIntervalSec) * time.Second,
	}, provider, clockwork.NewRealClock())

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: c.Handler(mux),
	}

	go service.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.Addr).
		Str("deployment", deploymentURL).
		Int("poll_interval_sec", cfg.PollIntervalSec).
		Msg("starting countdown dashboard")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("dashboard stopped")
}
