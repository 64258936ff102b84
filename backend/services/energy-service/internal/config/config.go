package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "ieoms/backend/libs/config"
	"ieoms/backend/services/energy-service/internal/service"
)

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Port            string        `yaml:"port" env:"ENERGY_HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"ENERGY_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"ENERGY_HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"ENERGY_HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"ENERGY_HTTP_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig configures PostgreSQL.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"ENERGY_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"ENERGY_POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"ENERGY_POSTGRES_MAX_IDLE_CONNS"`
}

// RedisConfig configures the recommendation cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ENERGY_REDIS_ADDR"`
	Password string `yaml:"password" env:"ENERGY_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"ENERGY_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"ENERGY_REDIS_TTL"`
}

// JWTConfig configures bearer token validation.
type JWTConfig struct {
	Secret string `yaml:"secret" env:"ENERGY_JWT_SECRET"`
}

// UploadConfig configures upload staging.
type UploadConfig struct {
	Dir      string `yaml:"dir" env:"ENERGY_UPLOAD_DIR"`
	MaxBytes int64  `yaml:"maxBytes" env:"ENERGY_UPLOAD_MAX_BYTES"`
	Location string `yaml:"location" env:"ENERGY_UPLOAD_LOCATION"`
}

// PipelineConfig mirrors service.PipelineConfig in file and env form.
type PipelineConfig struct {
	PeakThreshold       float64 `yaml:"peakThreshold" env:"ENERGY_PEAK_THRESHOLD"`
	NormalThreshold     float64 `yaml:"normalThreshold" env:"ENERGY_NORMAL_THRESHOLD"`
	ForecastHorizonDays int     `yaml:"forecastHorizonDays" env:"ENERGY_FORECAST_HORIZON_DAYS"`
	FallbackHourlyKWh   float64 `yaml:"fallbackHourlyKwh" env:"ENERGY_FALLBACK_HOURLY_KWH"`
	ModelVersionTag     string  `yaml:"modelVersionTag" env:"ENERGY_MODEL_VERSION"`
	ConfidenceScore     float64 `yaml:"confidenceScore" env:"ENERGY_CONFIDENCE_SCORE"`
	JitterSeed          int64   `yaml:"jitterSeed" env:"ENERGY_JITTER_SEED"`
	ConcurrencyPolicy   string  `yaml:"concurrencyPolicy" env:"ENERGY_CONCURRENCY_POLICY"`
	CostPerKWh          float64 `yaml:"costPerKwh" env:"ENERGY_COST_PER_KWH"`
}

// RecommendationsConfig configures the text generator.
type RecommendationsConfig struct {
	APIKey  string        `yaml:"apiKey" env:"GEMINI_API_KEY"`
	BaseURL string        `yaml:"baseUrl" env:"GEMINI_BASE_URL"`
	Model   string        `yaml:"model" env:"GEMINI_MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"GEMINI_TIMEOUT"`
	Limit   int           `yaml:"limit" env:"ENERGY_RECOMMENDATION_LIMIT"`
}

// MQTTConfig configures event publishing. An empty Broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker" env:"ENERGY_MQTT_BROKER"`
	ClientID    string `yaml:"clientId" env:"ENERGY_MQTT_CLIENT_ID"`
	Username    string `yaml:"username" env:"ENERGY_MQTT_USERNAME"`
	Password    string `yaml:"password" env:"ENERGY_MQTT_PASSWORD"`
	TopicPrefix string `yaml:"topicPrefix" env:"ENERGY_MQTT_TOPIC_PREFIX"`
	QoS         int    `yaml:"qos" env:"ENERGY_MQTT_QOS"`
}

// EventsConfig configures the websocket feed.
type EventsConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"ENERGY_EVENTS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"ENERGY_EVENTS_WRITE_TIMEOUT"`
}

// Config defines energy service configuration.
type Config struct {
	HTTP            HTTPConfig            `yaml:"http"`
	Database        DatabaseConfig        `yaml:"database"`
	Redis           RedisConfig           `yaml:"redis"`
	JWT             JWTConfig             `yaml:"jwt"`
	Upload          UploadConfig          `yaml:"upload"`
	Pipeline        PipelineConfig        `yaml:"pipeline"`
	Recommendations RecommendationsConfig `yaml:"recommendations"`
	MQTT            MQTTConfig            `yaml:"mqtt"`
	Events          EventsConfig          `yaml:"events"`
}

// Default returns configuration with production defaults.
func Default() *Config {
	pipeline := service.DefaultPipelineConfig()
	return &Config{
		HTTP: HTTPConfig{
			Port:            "5000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		Redis:    RedisConfig{TTL: 3600},
		Upload:   UploadConfig{MaxBytes: 5 << 20, Location: "UTC"},
		Pipeline: PipelineConfig{
			PeakThreshold:       pipeline.PeakThreshold,
			NormalThreshold:     pipeline.NormalThreshold,
			ForecastHorizonDays: pipeline.ForecastHorizonDays,
			FallbackHourlyKWh:   pipeline.FallbackHourlyKWh,
			ModelVersionTag:     pipeline.ModelVersionTag,
			ConfidenceScore:     pipeline.ConfidenceScore,
			ConcurrencyPolicy:   string(pipeline.ConcurrencyPolicy),
			CostPerKWh:          0.12,
		},
		Recommendations: RecommendationsConfig{Timeout: 30 * time.Second, Limit: 5},
		MQTT:            MQTTConfig{ClientID: "energy-service", TopicPrefix: "household_energy", QoS: 1},
		Events:          EventsConfig{PingInterval: 30 * time.Second, WriteTimeout: 10 * time.Second},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateServer adds the checks only the HTTP service needs.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	return nil
}

// Validate checks values shared by the service and the CLI.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("config: upload max bytes must be positive")
	}
	if _, err := time.LoadLocation(c.Upload.Location); err != nil {
		return fmt.Errorf("config: upload location: %w", err)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("config: mqtt qos must be 0, 1 or 2")
	}
	if _, err := c.PipelineSettings(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// PipelineSettings converts the pipeline section into service form.
func (c *Config) PipelineSettings() (service.PipelineConfig, error) {
	policy, err := service.ParseConcurrencyPolicy(c.Pipeline.ConcurrencyPolicy)
	if err != nil {
		return service.PipelineConfig{}, err
	}
	settings := service.PipelineConfig{
		PeakThreshold:       c.Pipeline.PeakThreshold,
		NormalThreshold:     c.Pipeline.NormalThreshold,
		ForecastHorizonDays: c.Pipeline.ForecastHorizonDays,
		FallbackHourlyKWh:   c.Pipeline.FallbackHourlyKWh,
		ModelVersionTag:     c.Pipeline.ModelVersionTag,
		ConfidenceScore:     c.Pipeline.ConfidenceScore,
		JitterSeed:          c.Pipeline.JitterSeed,
		ConcurrencyPolicy:   policy,
	}
	return settings, settings.Validate()
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "5000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RecommendationTTL returns cache ttl as duration.
func (c *Config) RecommendationTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// UploadLocation returns the zone for timestamps without an offset.
func (c *Config) UploadLocation() *time.Location {
	loc, err := time.LoadLocation(c.Upload.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
