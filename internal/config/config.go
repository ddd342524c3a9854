package config

import (
	"time" // Durations

	"github.com/caarlos0/env/v10"   // Struct tag based environment parsing
	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // Money values
)

// Config holds the application configuration
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`  // Application port
	IsProd   bool   `env:"IS_PROD"`                     // Is production environment
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"` // logrus level name

	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`     // sqlite, mysql or postgres
	DBPath        string `env:"DB_PATH" envDefault:"finance.db"`   // SQLite file
	DBUser        string `env:"DB_USER"`                           // Database user
	DBPassword    string `env:"DB_PASSWORD"`                       // Database password
	DBHost        string `env:"DB_HOST" envDefault:"127.0.0.1"`    // Database host
	DBPort        string `env:"DB_PORT"`                           // Database port
	DBName        string `env:"DB_NAME" envDefault:"finance"`      // Database name
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"` // Migrate the schema on server start

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"` // Session signing key
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"` // Session lifetime

	RedisAddr string        `env:"REDIS_ADDR"`                 // Redis server address, empty for the in-process cache
	RedisPass string        `env:"REDIS_PASS"`                 // Redis password
	RedisDB   int           `env:"REDIS_DB"`                   // Redis database number
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"60s"` // Read cache lifetime

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`  // Empty disables trade events
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"trades"` // Topic for trade events

	QuoteProvider string        `env:"QUOTE_PROVIDER" envDefault:"eodhd"`                 // eodhd or fixed
	QuoteAPIKey   string        `env:"QUOTE_API_KEY" envDefault:"demo"`                   // EODHD API token
	QuoteBaseURL  string        `env:"QUOTE_BASE_URL" envDefault:"https://eodhd.com/api"` // EODHD API root
	QuoteTimeout  time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`                     // Upper bound on a single lookup

	// Prices served when QUOTE_PROVIDER=fixed, e.g. "AAPL:189.50,MSFT:410"
	FixedQuotes map[string]string `env:"QUOTE_FIXED_PRICES" envSeparator:"," envKeyValSeparator:":"`

	InitialCash decimal.Decimal `env:"INITIAL_CASH" envDefault:"10000.00"` // Cash granted at registration
}

// LoadConfig loads configuration from the environment, after an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MySQLDSN returns the Data Source Name for the MySQL driver
func (c *Config) MySQLDSN() string {
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

// PostgresDSN returns the keyword/value connection string for the Postgres driver
func (c *Config) PostgresDSN() string {
	port := c.DBPort
	if port == "" {
		port = "5432"
	}
	return "host=" + c.DBHost + " port=" + port + " user=" + c.DBUser + " password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=disable"
}
