package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Simulation constants. These are part of the gameplay contract, not
// operator tuning — changing them changes behavior for every client.
const (
	TickRate            = 20   // simulation Hz; snapshots emit at half rate
	AOIRadius           = 15.0 // tiles; per-client replication cutoff (Euclidean)
	PickupRange         = 1.0
	PortalInteractRange = 1.5
	VaultChestRange     = 1.5
	PlayerRadius        = 0.35
	MaxLevel            = 20
	VaultSize           = 8
	InventorySize       = 8
	EquipSlots          = 4
	MaxAlivePerClass    = 2 // alive characters per class per account
	ChatMaxLen          = 200

	LootBagTTL       = 60 * time.Second
	DungeonPortalTTL = 120 * time.Second

	// Share of an enemy's max hp a player must have dealt to qualify
	// for its soulbound drops.
	SoulboundThreshold = 0.05

	SessionTokenLifetime = 30 * 24 * time.Hour
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Network   NetworkConfig   `toml:"network"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Admin     AdminConfig     `toml:"admin"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name          string        `toml:"name"`
	AutosaveEvery time.Duration `toml:"autosave_every"`
}

type DatabaseConfig struct {
	Path string `toml:"path"` // SQLite file; ":memory:" for ephemeral
}

type NetworkConfig struct {
	BindAddress    string        `toml:"bind_address"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	OutQueueSize   int           `toml:"out_queue_size"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

type RateLimitConfig struct {
	AuthPerMinute int           `toml:"auth_per_minute"`
	InputBurstMax int           `toml:"input_burst_max"`
	InputBurstGap time.Duration `toml:"input_burst_gap"`
}

type AdminConfig struct {
	AllowlistPath string `toml:"allowlist_path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads the TOML config at path, then applies environment overrides
// (PORT, DB_PATH). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 && n < 65536 {
			cfg.Network.BindAddress = fmt.Sprintf(":%d", n)
		}
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "realmgo",
			AutosaveEvery: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "realmgo.db",
		},
		Network: NetworkConfig{
			BindAddress: ":8080",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:8080",
				"https://play.realmgo.dev",
			},
			OutQueueSize: 256,
			WriteTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: 5,
			InputBurstMax: 100,
			InputBurstGap: 10 * time.Millisecond,
		},
		Admin: AdminConfig{
			AllowlistPath: "admins.txt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
