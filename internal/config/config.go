package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
)

// Config holds the full application configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	ReadHeaderTimeout  int      `yaml:"read_header_timeout_secs" mapstructure:"read_header_timeout_secs"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" mapstructure:"cors_allowed_origins"`
}

// StoreConfig selects where extracted rows live: "memory" or "sqlite".
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// APIConfig configures the search analytics reporting API client.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Site              string  `yaml:"site" mapstructure:"site"`
	Token             string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RowLimit          int     `yaml:"row_limit" mapstructure:"row_limit"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetentionMonths   int     `yaml:"retention_months" mapstructure:"retention_months"`
}

func (a APIConfig) Timeout() time.Duration { return time.Duration(a.TimeoutSecs) * time.Second }

// ReportConfig picks the client category configuration: a YAML file when
// ClientConfig is set, otherwise a built-in preset.
type ReportConfig struct {
	TopN         int      `yaml:"top_n" mapstructure:"top_n"`
	ClientConfig string   `yaml:"client_config" mapstructure:"client_config"`
	Preset       string   `yaml:"preset" mapstructure:"preset"`
	Subdomains   []string `yaml:"subdomains" mapstructure:"subdomains"`
}

// Category resolves the client category configuration.
func (r ReportConfig) Category() (category.Config, error) {
	if r.ClientConfig != "" {
		return category.LoadFile(r.ClientConfig)
	}
	if r.Preset == "" {
		return category.Config{}, apperr.Configuration("no client config file or preset given")
	}
	return category.Preset(r.Preset)
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml (or the file at path) plus GSC_* environment
// variables on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("GSC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout_secs", 10)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "gsc.db")
	v.SetDefault("api.base_url", "https://www.googleapis.com/webmasters/v3")
	v.SetDefault("api.site", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.row_limit", 25000)
	v.SetDefault("api.requests_per_second", 5)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.retention_months", 16)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("report.client_config", "")
	v.SetDefault("report.preset", "transbank")
	v.SetDefault("report.subdomains", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
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
