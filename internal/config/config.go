package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Temporal   TemporalConfig   `yaml:"temporal" mapstructure:"temporal"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalysisConfig holds the default grid configuration applied to new
// datasets and to one-shot analyses.
type AnalysisConfig struct {
	SatisfactionScale  string  `yaml:"satisfaction_scale" mapstructure:"satisfaction_scale"`
	LoyaltyScale       string  `yaml:"loyalty_scale" mapstructure:"loyalty_scale"`
	MidpointSat        float64 `yaml:"midpoint_sat" mapstructure:"midpoint_sat"` // 0 = scale center
	MidpointLoy        float64 `yaml:"midpoint_loy" mapstructure:"midpoint_loy"` // 0 = scale center
	ApostlesZoneSize   int     `yaml:"apostles_zone_size" mapstructure:"apostles_zone_size"`
	TerroristsZoneSize int     `yaml:"terrorists_zone_size" mapstructure:"terrorists_zone_size"`
	ShowSpecialZones   bool    `yaml:"show_special_zones" mapstructure:"show_special_zones"`
	ShowNearApostles   bool    `yaml:"show_near_apostles" mapstructure:"show_near_apostles"`
	Threshold          float64 `yaml:"threshold" mapstructure:"threshold"` // 0 = scale default
	Premium            bool    `yaml:"premium" mapstructure:"premium"`
}

// CacheConfig configures the in-memory analysis result cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	MaxMB      int  `yaml:"max_mb" mapstructure:"max_mb"`
}

// ImportConfig configures CSV/XLSX import and the FTP fetch.
type ImportConfig struct {
	Delimiter string    `yaml:"delimiter" mapstructure:"delimiter"`
	Charset   string    `yaml:"charset" mapstructure:"charset"` // empty = utf-8
	Sheet     string    `yaml:"sheet" mapstructure:"sheet"`     // empty = first sheet
	FTP       FTPConfig `yaml:"ftp" mapstructure:"ftp"`
}

// FTPConfig holds credentials for survey-vendor FTP drops.
type FTPConfig struct {
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SalesforceConfig holds Salesforce JWT auth settings for at-risk sync.
// MinRiskScore is the floor (0-100) a relationship member must reach to be
// pushed as a Task; crossroads customers bypass it.
type SalesforceConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	Username     string  `yaml:"username" mapstructure:"username"`
	KeyPath      string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL     string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MinRiskScore float64 `yaml:"min_risk_score" mapstructure:"min_risk_score"`
	DryRun       bool    `yaml:"dry_run" mapstructure:"dry_run"`
}

// NotionConfig holds Notion API credentials for report publishing.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// AnthropicConfig holds Anthropic API settings for report narratives.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// TemporalConfig configures the scheduled refresh worker.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" mapstructure:"host_port"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	TaskQueue string `yaml:"task_queue" mapstructure:"task_queue"`
	// Cron schedules the refresh workflow when set (Temporal cron syntax).
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// MonitoringConfig controls the background health checks and the alert
// webhook. An empty WebhookURL disables alert delivery; checks still log.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StalledRunThreshold  int     `yaml:"stalled_run_threshold" mapstructure:"stalled_run_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.segmentor")

	// Environment
	v.SetEnvPrefix("SEGMENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout_secs", 30)
	v.SetDefault("server.write_timeout_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("analysis.satisfaction_scale", "0-10")
	v.SetDefault("analysis.loyalty_scale", "0-10")
	v.SetDefault("analysis.apostles_zone_size", 1)
	v.SetDefault("analysis.terrorists_zone_size", 1)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_minutes", 15)
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("import.delimiter", ",")
	v.SetDefault("import.ftp.user", "anonymous")
	v.SetDefault("import.ftp.password", "anonymous")
	v.SetDefault("import.ftp.timeout_secs", 30)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit_rps", 5)
	v.SetDefault("salesforce.min_risk_score", 60)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "segmentor-refresh")
	v.SetDefault("temporal.cron", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.stalled_run_threshold", 10)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields a command mode depends on are present and
// sane. Collected problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	storeChecks := func() {
		switch c.Store.Driver {
		case "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for the postgres driver")
			}
		default:
			errs = append(errs, fmt.Sprintf("store.driver %q is not supported (sqlite, postgres)", c.Store.Driver))
		}
		if c.Store.MaxConns < 1 {
			errs = append(errs, "store.max_conns must be >= 1")
		}
	}
	analysisChecks := func() {
		if c.Analysis.SatisfactionScale == "" {
			errs = append(errs, "analysis.satisfaction_scale is required")
		}
		if c.Analysis.LoyaltyScale == "" {
			errs = append(errs, "analysis.loyalty_scale is required")
		}
		if c.Analysis.ApostlesZoneSize < 1 || c.Analysis.TerroristsZoneSize < 1 {
			errs = append(errs, "analysis zone sizes must be >= 1")
		}
	}

	switch mode {
	case "serve":
		storeChecks()
		analysisChecks()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0")
		}
	case "import", "analyze", "report", "datasets":
		storeChecks()
		analysisChecks()
	case "sync":
		storeChecks()
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
		if c.Salesforce.MinRiskScore < 0 || c.Salesforce.MinRiskScore > 100 {
			errs = append(errs, "salesforce.min_risk_score must be between 0 and 100")
		}
	case "publish":
		storeChecks()
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.ReportDB == "" {
			errs = append(errs, "notion.report_db is required")
		}
	case "worker":
		storeChecks()
		analysisChecks()
		if c.Temporal.HostPort == "" {
			errs = append(errs, "temporal.host_port is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s mode: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
