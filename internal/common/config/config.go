// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Server   ServerConfig            `mapstructure:"server"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	APIs     APIsConfig              `mapstructure:"apis"`
	Planner  PlannerConfig           `mapstructure:"planner"`
	Chat     ChatConfig              `mapstructure:"chat"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the planner HTTP API.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	MetricsAddress  string   `mapstructure:"metrics_address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every stage worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for the search provider and the text-generation backend.
type APIsConfig struct {
	Search SearchAPIConfig `mapstructure:"search"`
	GenAI  GenAIConfig     `mapstructure:"genai"`
}

type SearchAPIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
	Language       string `mapstructure:"language"`
	Country        string `mapstructure:"country"`
	Currency       string `mapstructure:"currency"`
	HotelSortBy    int    `mapstructure:"hotel_sort_by"`
	HotelMinRating int    `mapstructure:"hotel_min_rating"`
	CacheTTL       int    `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
}

// GenAI providers.
const (
	GenAIProviderAnthropic = "anthropic"
	GenAIProviderHTTP      = "http"
)

type GenAIConfig struct {
	Provider    string  `mapstructure:"provider"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

// Day range policies for itineraries whose check-out is not after check-in.
const (
	DayRangePassThrough = "passthrough"
	DayRangeReject      = "reject"
	DayRangeClamp       = "clamp"
)

// PlannerConfig holds orchestration settings.
type PlannerConfig struct {
	HomeLocation   string `mapstructure:"home_location"`
	HomeAirport    string `mapstructure:"home_airport"`
	DayRangePolicy string `mapstructure:"day_range_policy"`
	RegistryPath   string `mapstructure:"registry_path"`
}

// Chat store backends.
const (
	ChatStoreMemory   = "memory"
	ChatStoreRedis    = "redis"
	ChatStorePostgres = "postgres"
)

type ChatConfig struct {
	Store string `mapstructure:"store"`
	TTL   int    `mapstructure:"ttl"` // seconds, redis only; 0 keeps sessions forever
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
