package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/julieginest/prjCyberA3/internal/auth"
	"github.com/julieginest/prjCyberA3/internal/config"
	"github.com/julieginest/prjCyberA3/internal/server"
	"github.com/julieginest/prjCyberA3/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the atelier auth server",
		Long:  "Start the HTTP server that handles sessions, API keys, product access and webhook deliveries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP listen port (overrides config)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (debug logging, generated secrets)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger := newLogger(cfg.Logging, dev)

	if err := provisionSecrets(cfg, dev, logger); err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	metrics, err := telemetry.New("atelier")
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer metrics.Shutdown(context.Background())

	tokens := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret))
	keys := auth.NewAPIKeys(st, []byte(cfg.Auth.APIKeySecret), logger)
	resolver := auth.NewResolver(st)
	pipeline := auth.NewPipeline(tokens, keys, resolver,
		config.Duration(cfg.Auth.StoreTimeout, auth.DefaultStoreTimeout))
	limiter := auth.NewLoginLimiter(config.Duration(cfg.Auth.LoginWindow, auth.DefaultLoginWindow))
	webhooks := auth.NewWebhookVerifier([]byte(cfg.Auth.WebhookSecret))

	srvCfg := server.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ShutdownTimeout:   config.Duration(cfg.Server.ShutdownTimeout, server.DefaultConfig().ShutdownTimeout),
		CORSOrigins:       cfg.Server.CORSOrigins,
		MaxBodySize:       cfg.Server.MaxBodySize,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		TokenTTL:          config.Duration(cfg.Auth.JWTExpiry, server.DefaultConfig().TokenTTL),
	}

	srv := server.New(srvCfg, server.Deps{
		Store:        st,
		Pipeline:     pipeline,
		Keys:         keys,
		Tokens:       tokens,
		LoginLimiter: limiter,
		Webhooks:     webhooks,
		Metrics:      metrics,
		Logger:       logger,
	})

	fmt.Printf("→ atelier %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Metrics: http://%s:%d/metrics\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}

func newLogger(lc config.LoggingConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	var h slog.Handler
	if lc.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h)
}

// provisionSecrets enforces that all three secrets are set. In dev mode
// missing secrets are generated per process, which invalidates tokens and
// API keys across restarts.
func provisionSecrets(cfg *config.Config, dev bool, logger *slog.Logger) error {
	missing := []string{}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if cfg.Auth.APIKeySecret == "" {
		missing = append(missing, "auth.api_key_secret")
	}
	if cfg.Auth.WebhookSecret == "" {
		missing = append(missing, "auth.webhook_secret")
	}
	if len(missing) == 0 {
		return nil
	}
	if !dev {
		return fmt.Errorf("missing required secrets %v (set them in the config file or via ATELIER_AUTH_* env vars)", missing)
	}

	logger.Warn("dev mode: generating ephemeral secrets, sessions will not survive a restart", "missing", missing)
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = randomSecret()
	}
	if cfg.Auth.APIKeySecret == "" {
		cfg.Auth.APIKeySecret = randomSecret()
	}
	if cfg.Auth.WebhookSecret == "" {
		cfg.Auth.WebhookSecret = randomSecret()
	}
	return nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
