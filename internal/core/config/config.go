package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aevon-lab/salescube/internal/core/codec"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/report"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus the resolved report definitions.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Reports  ReportsConfig  `koanf:"reports"`
	Codec    CodecConfig    `koanf:"codec"`
	Query    QueryConfig    `koanf:"query"`
	Log      LogConfig      `koanf:"log"`

	// ReportLoading is populated by Load after parsing report files.
	ReportLoading ReportLoadingConfig `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

// DatabaseConfig configures the optional Postgres journal.
// With Enabled false the warehouse is memory-only.
type DatabaseConfig struct {
	Enabled      bool   `koanf:"enabled"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type ReportsConfig struct {
	Dir            string `koanf:"dir"`
	RequireReports bool   `koanf:"require_reports"`
}

type CodecConfig struct {
	Kind   string `koanf:"kind"` // identity | xchacha20poly1305
	KeyHex string `koanf:"key_hex"`
}

type QueryConfig struct {
	RatioScale        int32 `koanf:"ratio_scale"`
	MaxCubeAttributes int   `koanf:"max_cube_attributes"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug | info | warn | error
}

type ReportLoadingConfig struct {
	Dir        string
	Repository *report.FileSystemRepository
}

// SlogLevel returns the configured log level.
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Keyring builds the attribute codec keyring.
func (c CodecConfig) Keyring() (*codec.Keyring, error) {
	return codec.NewKeyring(c.Kind, c.KeyHex)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required when database.enabled is true")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	}

	if strings.TrimSpace(c.Reports.Dir) == "" {
		return fmt.Errorf("reports.dir is required")
	}

	switch c.Codec.Kind {
	case codec.KindIdentity:
	case codec.KindXChaCha:
		if strings.TrimSpace(c.Codec.KeyHex) == "" {
			return fmt.Errorf("codec.key_hex is required for codec.kind %q", c.Codec.Kind)
		}
	default:
		return fmt.Errorf("unsupported codec.kind %q", c.Codec.Kind)
	}

	if c.Query.RatioScale < 0 || c.Query.RatioScale > 18 {
		return fmt.Errorf("query.ratio_scale must be between 0 and 18")
	}
	if c.Query.MaxCubeAttributes <= 0 || c.Query.MaxCubeAttributes >= 64 {
		return fmt.Errorf("query.max_cube_attributes must be between 1 and 63")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}

	return nil
}

// Load parses config from file + env, validates it, then loads and validates report definitions.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.max_body_size_mb":   1,
		"server.mode":               "release",
		"database.enabled":          false,
		"database.dsn":              "",
		"database.max_open_conns":   25,
		"database.max_idle_conns":   25,
		"database.auto_migrate":     true,
		"reports.dir":               "./config/reports",
		"reports.require_reports":   false,
		"codec.kind":                codec.KindIdentity,
		"codec.key_hex":             "",
		"query.ratio_scale":         4,
		"query.max_cube_attributes": 12,
		"log.level":                 "info",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SALESCUBE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SALESCUBE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := report.NewFileSystemRepository(cfg.Reports.Dir, schema.Sales())
	if err != nil {
		return nil, fmt.Errorf("failed to load report definitions: %w", err)
	}
	if cfg.Reports.RequireReports && len(repo.Definitions()) == 0 {
		return nil, fmt.Errorf("no report definitions found in %q", cfg.Reports.Dir)
	}

	cfg.ReportLoading = ReportLoadingConfig{
		Dir:        cfg.Reports.Dir,
		Repository: repo,
	}

	return &cfg, nil
}
