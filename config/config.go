package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/configparser"
)

// Flags
var (
	modeFlag   = flag.String("mode", "", "application mode: api-service | realtime-service | functions-service")
	dotenvFlag = flag.String("env-file", ".env", "optional .env file loaded before the YAML config")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrUnknownMode     = errors.New("unknown mode")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode     types.ServiceMode
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`

		Database  DatabaseConfig
		RabbitMQ  RabbitMQConfig
		Redis     RedisConfig
		Services  ServicesConfig
		Auth      Auth
		Admin     AdminConfig
		OTP       OTPConfig
		Providers ProvidersConfig
		Tracing   TracingConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"hpyride"`
		Password string `env:"DATABASE_PASSWORD" default:"hpyride"`
		Database string `env:"DATABASE_DATABASE" default:"hpyride"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	RedisConfig struct {
		Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" default:"0"`
		TLS      bool   `env:"REDIS_TLS" default:"false"`
	}

	ServicesConfig struct {
		APIService       string `env:"SERVICES_API_SERVICE" default:"3000"`
		RealtimeService  string `env:"SERVICES_REALTIME_SERVICE" default:"3001"`
		FunctionsService string `env:"SERVICES_FUNCTIONS_SERVICE" default:"3002"`

		// APIURL is the public base URL of the api-service; realtime clients fetch feedback cues from it.
		APIURL string `env:"SERVICES_API_URL" default:"http://localhost:3000"`
		// FunctionsURL is the base URL other services use to invoke named functions.
		FunctionsURL string `env:"SERVICES_FUNCTIONS_URL" default:"http://localhost:3002"`
		ServiceKey   string `env:"SERVICES_SERVICE_KEY"`
	}

	Auth struct {
		AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" default:"168h"`
		JWTSecret       string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	AdminConfig struct {
		SessionTTL time.Duration `env:"ADMIN_SESSION_TTL" default:"12h"`
	}

	OTPConfig struct {
		Capacity       int           `env:"OTP_RATE_CAPACITY" default:"3"`
		RefillTokens   int           `env:"OTP_RATE_REFILL_TOKENS" default:"1"`
		RefillInterval time.Duration `env:"OTP_RATE_REFILL_INTERVAL" default:"1m"`
		TTL            time.Duration `env:"OTP_RATE_TTL" default:"1h"`
	}

	ProvidersConfig struct {
		FirebaseProjectID       string `env:"PROVIDERS_FIREBASE_PROJECT_ID"`
		FirebaseCredentialsFile string `env:"PROVIDERS_FIREBASE_CREDENTIALS_FILE"`

		TwilioAccountSID string `env:"PROVIDERS_TWILIO_ACCOUNT_SID"`
		TwilioAuthToken  string `env:"PROVIDERS_TWILIO_AUTH_TOKEN"`
		TwilioServiceSID string `env:"PROVIDERS_TWILIO_SERVICE_SID"`

		GeminiAPIKey string `env:"PROVIDERS_GEMINI_API_KEY"`
		GeminiModel  string `env:"PROVIDERS_GEMINI_MODEL" default:"gemini-1.5-flash"`

		HTTPTimeout time.Duration `env:"PROVIDERS_HTTP_TIMEOUT" default:"10s"`
	}

	TracingConfig struct {
		Enabled  bool    `env:"TRACING_ENABLED" default:"false"`
		Endpoint string  `env:"TRACING_ENDPOINT" default:"localhost:4318"`
		Insecure bool    `env:"TRACING_INSECURE" default:"true"`
		Ratio    float64 `env:"TRACING_SAMPLE_RATIO" default:"1"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c DatabaseConfig) GetPoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func (c RedisConfig) GetAddr() string     { return c.Addr }
func (c RedisConfig) GetPassword() string { return c.Password }
func (c RedisConfig) GetDB() int          { return c.DB }
func (c RedisConfig) UseTLS() bool        { return c.TLS }

func (c TracingConfig) IsEnabled() bool     { return c.Enabled }
func (c TracingConfig) GetEndpoint() string { return c.Endpoint }
func (c TracingConfig) IsInsecure() bool    { return c.Insecure }
func (c TracingConfig) GetRatio() float64   { return c.Ratio }

// EnvFile is the .env path given on the command line.
func EnvFile() string {
	return *dotenvFlag
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// .env first, then the YAML file, then struct defaults.
	if err := configparser.LoadAndParseYaml(filepath, cfg, *dotenvFlag); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)
	switch cfg.Mode {
	case types.APIService, types.RealtimeService, types.FunctionsService:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, *modeFlag)
	}

	return nil
}
