package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	LogLevel     string             `mapstructure:"log_level"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	FRED         FREDConfig         `mapstructure:"fred"`
	Fundamentals FundamentalsConfig `mapstructure:"fundamentals"`
	Analysis     AnalysisConfig     `mapstructure:"analysis"`
	Ingest       IngestConfig       `mapstructure:"ingest"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	IdleTimeout    int      `mapstructure:"idle_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type FREDConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"-"`
	Timeout int    `mapstructure:"timeout"`
}

type FundamentalsConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
}

// AnalysisConfig controls the beta/trend analysis defaults. RateSeries
// lists the macro series resampled by period mean; every other series is
// resampled by last observation of the period.
type AnalysisConfig struct {
	DefaultYears         int      `mapstructure:"default_years"`
	MinYears             int      `mapstructure:"min_years"`
	MaxYears             int      `mapstructure:"max_years"`
	RateSeries           []string `mapstructure:"rate_series"`
	TrendSmoothingWindow int      `mapstructure:"trend_smoothing_window"`
}

type IngestConfig struct {
	MaxYears         int    `mapstructure:"max_years"`
	DefaultFrequency string `mapstructure:"default_frequency"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("fred.api_key", "FRED_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind FRED_API_KEY environment variable: %w", err)
	}
	// Bind standard DATABASE_URL
	_ = viper.BindEnv("database.database_url", "DATABASE_URL")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if config.Analysis.MinYears < 2 {
		return nil, fmt.Errorf("analysis.min_years must be at least 2, got %d", config.Analysis.MinYears)
	}
	if config.Analysis.MaxYears < config.Analysis.MinYears {
		return nil, fmt.Errorf("analysis.max_years must be >= analysis.min_years, got %d < %d",
			config.Analysis.MaxYears, config.Analysis.MinYears)
	}
	if config.Analysis.DefaultYears < config.Analysis.MinYears || config.Analysis.DefaultYears > config.Analysis.MaxYears {
		return nil, fmt.Errorf("analysis.default_years must be within [%d, %d], got %d",
			config.Analysis.MinYears, config.Analysis.MaxYears, config.Analysis.DefaultYears)
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 60)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "macrobeta")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "macrobeta-api")
	viper.SetDefault("telemetry.exporter", "stdout")
	viper.SetDefault("telemetry.endpoint", "localhost:4318")
	viper.SetDefault("telemetry.sample_rate", 1.0)

	// FRED
	viper.SetDefault("fred.base_url", "https://api.stlouisfed.org")
	viper.SetDefault("fred.api_key", "")
	viper.SetDefault("fred.timeout", 10)

	// Fundamentals gateway
	viper.SetDefault("fundamentals.service_url", "http://localhost:3001")
	viper.SetDefault("fundamentals.timeout", 10)

	// Analysis
	viper.SetDefault("analysis.default_years", 10)
	viper.SetDefault("analysis.min_years", 2)
	viper.SetDefault("analysis.max_years", 20)
	viper.SetDefault("analysis.rate_series", []string{"EFFR", "UNRATE"})
	viper.SetDefault("analysis.trend_smoothing_window", 3)

	// Ingest
	viper.SetDefault("ingest.max_years", 20)
	viper.SetDefault("ingest.default_frequency", "quarterly")
}
