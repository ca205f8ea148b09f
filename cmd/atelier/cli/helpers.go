package cli

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/julieginest/prjCyberA3/internal/config"
	"github.com/julieginest/prjCyberA3/internal/store"
)

// resolveDataDir returns the data directory from the --data-dir flag,
// the ATELIER_DATA_DIR env var, or ~/.atelier as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("ATELIER_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.atelier"
}

// loadConfig reads the YAML config (if any) and layers ATELIER_* env
// overrides for the secrets on top.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case cfgFile != "":
		cfg, err = config.Load(cfgFile)
	case viper.ConfigFileUsed() != "":
		cfg, err = config.Load(viper.ConfigFileUsed())
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if s := viper.GetString("auth.jwt_secret"); s != "" {
		cfg.Auth.JWTSecret = s
	}
	if s := viper.GetString("auth.api_key_secret"); s != "" {
		cfg.Auth.APIKeySecret = s
	}
	if s := viper.GetString("auth.webhook_secret"); s != "" {
		cfg.Auth.WebhookSecret = s
	}
	if s := viper.GetString("store.driver"); s != "" {
		cfg.Store.Driver = s
	}
	if s := viper.GetString("store.dsn"); s != "" {
		cfg.Store.DSN = s
	}
	return cfg, nil
}

// openStore opens the configured database, defaulting to the SQLite file
// under the data directory.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" {
		if cfg.Store.DSN != "" {
			return store.Open("sqlite", cfg.Store.DSN)
		}
		dir := cfg.Store.DataDir
		if dir == "" {
			dir = resolveDataDir()
		}
		return store.OpenDir(dir)
	}
	return store.Open(cfg.Store.Driver, cfg.Store.DSN)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
