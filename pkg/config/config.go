package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Analysis is the immutable configuration value threaded into every
// evaluation. All knobs are overridable per invocation; nothing here is
// global mutable state, so one market can be re-evaluated under different
// configurations deterministically and concurrently.
type Analysis struct {
	// Indicator windows.
	MomentumPeriod int `yaml:"momentum_period" default:"3" validate:"gte=1"`
	RSIPeriod      int `yaml:"rsi_period" default:"14" validate:"gte=2"`
	ZScoreLookback int `yaml:"zscore_lookback" default:"20" validate:"gte=2"`
	SMAPeriod      int `yaml:"sma_period" default:"10" validate:"gte=1"`
	ATRLookback    int `yaml:"atr_lookback" default:"14" validate:"gte=1"`

	// Adaptive MA: effective period scales between base and max with the
	// efficiency of the recent move relative to volatility.
	AdaptiveBasePeriod  int     `yaml:"adaptive_base_period" default:"10" validate:"gte=2"`
	AdaptiveMaxPeriod   int     `yaml:"adaptive_max_period" default:"30" validate:"gtefield=AdaptiveBasePeriod"`
	AdaptiveSensitivity float64 `yaml:"adaptive_sensitivity" default:"2.0" validate:"gt=0"`

	BollingerLookback int     `yaml:"bollinger_lookback" default:"20" validate:"gte=2"`
	BollingerK        float64 `yaml:"bollinger_k" default:"2.0" validate:"gt=0"`

	FibSwingLookback int `yaml:"fib_swing_lookback" default:"50" validate:"gte=3"`

	// Steam detection.
	SteamATRMultiple float64 `yaml:"steam_atr_multiple" default:"1.5" validate:"gt=0"`
	SteamSplitsGap   float64 `yaml:"steam_splits_gap" default:"10" validate:"gte=0"`

	// Forecasting.
	ForecastHorizon int     `yaml:"forecast_horizon" default:"6" validate:"gte=1"`
	CIScale         float64 `yaml:"ci_scale" default:"1.0" validate:"gt=0"`
	PointsPerIP     float64 `yaml:"points_per_ip" default:"20" validate:"gt=0"`

	// Recommendation.
	FadeDivergence float64 `yaml:"fade_divergence" default:"0.02" validate:"gt=0"`
	KellyCap       float64 `yaml:"kelly_cap" default:"0.20" validate:"gt=0,lte=1"`

	// Normalization.
	VigTolerance float64 `yaml:"vig_tolerance" default:"0.08" validate:"gt=0"`
	HistoryLen   int     `yaml:"history_len" default:"300" validate:"gte=10"`
}

// MinObservations returns the smallest series length for which the window
// indicators (and therefore the forecaster) produce real numbers rather than
// neutral placeholders.
func (a Analysis) MinObservations() int {
	n := a.MomentumPeriod + 1
	if m := a.RSIPeriod + 1; m > n {
		n = m
	}
	return n
}

// DefaultAnalysis returns the documented defaults.
func DefaultAnalysis() Analysis {
	var a Analysis
	_ = defaults.Set(&a)
	return a
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Feed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Books          []string      `yaml:"books"`
		Sports         []string      `yaml:"sports"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		SplitsURL      string        `yaml:"splits_url"`
		SplitsPoll     time.Duration `yaml:"splits_poll"`
	} `yaml:"feed"`
	Analysis Analysis `yaml:"analysis"`
	Cache    struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Queue struct {
		Enabled bool   `yaml:"enabled"`
		Name    string `yaml:"name"`
		Workers int    `yaml:"workers"`
	} `yaml:"queue"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("BOOKS"); v != "" {
		c.Feed.Books = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" && c.Backend.Type != "both" {
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'both', got '%s'", c.Backend.Type)
	}
	if err := validate.Struct(c.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}
