package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Dialer    DialerConfig    `yaml:"dialer"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// DialerConfig holds everything needed to talk to the upstream telephony API.
// The per-minute ceilings are per resource kind: the CDR endpoint is the
// heaviest and gets the slowest pace.
type DialerConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
	PageSize int    `yaml:"page_size"`

	CallsPerMinute     int `yaml:"calls_per_minute"`
	LeadsPerMinute     int `yaml:"leads_per_minute"`
	AgentsPerMinute    int `yaml:"agents_per_minute"`
	CampaignsPerMinute int `yaml:"campaigns_per_minute"`

	ThrottleCooldownSeconds int `yaml:"throttle_cooldown_seconds"`
	// ThrottleMaxRetries bounds consecutive 429 retries on one page;
	// 0 retries until the request context expires.
	ThrottleMaxRetries int `yaml:"throttle_max_retries"`
}

type CacheConfig struct {
	TTLMinutes           int `yaml:"ttl_minutes"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
}

// RateLimitConfig throttles API clients per IP. Report requests fan out into
// multi-minute upstream fetch chains, so the ceiling is deliberately low.
type RateLimitConfig struct {
	RPS              float64 `yaml:"rps"`
	Burst            int     `yaml:"burst"`
	SweepMinutes     int     `yaml:"sweep_minutes"`
	IdleEvictMinutes int     `yaml:"idle_evict_minutes"`
}

// RedisConfig enables the asynq-backed report queue when set.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SnapshotTime string `yaml:"snapshot_time"` // HH:MM, local time
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "callsight.db",
		},
		Dialer: DialerConfig{
			BaseURL:                 "http://localhost:9000",
			PageSize:                500,
			CallsPerMinute:          60,
			LeadsPerMinute:          120,
			AgentsPerMinute:         240,
			CampaignsPerMinute:      240,
			ThrottleCooldownSeconds: 60,
			ThrottleMaxRetries:      0,
		},
		Cache: CacheConfig{
			TTLMinutes:           30,
			SweepIntervalMinutes: 5,
		},
		RateLimit: RateLimitConfig{
			RPS:              10,
			Burst:            20,
			SweepMinutes:     3,
			IdleEvictMinutes: 5,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,
			SnapshotTime: "01:00",
		},
		LogLevel: "info",
	}
}

// applyDefaults fills zero values left by a sparse YAML file so a partial
// config never produces a zero page size or a zero TTL.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Database.Driver == "" {
		c.Database = def.Database
	}
	if c.Dialer.PageSize <= 0 {
		c.Dialer.PageSize = def.Dialer.PageSize
	}
	if c.Dialer.CallsPerMinute <= 0 {
		c.Dialer.CallsPerMinute = def.Dialer.CallsPerMinute
	}
	if c.Dialer.LeadsPerMinute <= 0 {
		c.Dialer.LeadsPerMinute = def.Dialer.LeadsPerMinute
	}
	if c.Dialer.AgentsPerMinute <= 0 {
		c.Dialer.AgentsPerMinute = def.Dialer.AgentsPerMinute
	}
	if c.Dialer.CampaignsPerMinute <= 0 {
		c.Dialer.CampaignsPerMinute = def.Dialer.CampaignsPerMinute
	}
	if c.Dialer.ThrottleCooldownSeconds <= 0 {
		c.Dialer.ThrottleCooldownSeconds = def.Dialer.ThrottleCooldownSeconds
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = def.Cache.TTLMinutes
	}
	if c.Cache.SweepIntervalMinutes <= 0 {
		c.Cache.SweepIntervalMinutes = def.Cache.SweepIntervalMinutes
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = def.RateLimit.RPS
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.SweepMinutes <= 0 {
		c.RateLimit.SweepMinutes = def.RateLimit.SweepMinutes
	}
	if c.RateLimit.IdleEvictMinutes <= 0 {
		c.RateLimit.IdleEvictMinutes = def.RateLimit.IdleEvictMinutes
	}
	if c.Scheduler.SnapshotTime == "" {
		c.Scheduler.SnapshotTime = def.Scheduler.SnapshotTime
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if baseURL := os.Getenv("DIALER_BASE_URL"); baseURL != "" {
		c.Dialer.BaseURL = baseURL
	}
	if token := os.Getenv("DIALER_API_TOKEN"); token != "" {
		c.Dialer.APIToken = token
	}
	if pageSize := os.Getenv("DIALER_PAGE_SIZE"); pageSize != "" {
		if n, err := strconv.Atoi(pageSize); err == nil && n > 0 {
			c.Dialer.PageSize = n
		}
	}
	if ttl := os.Getenv("CACHE_TTL_MINUTES"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
			c.Cache.TTLMinutes = n
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}
