package config

import (
	"flag"
	"fmt"
	"strings"
)

const HelpMessage = `
HpyRide backend

Usage:
  hpyride -mode <service> [-config-path config.yaml] [-env-file .env]
  hpyride -help

Modes:
  api-service        REST API: auth, rides, bookings, chat, vehicles, notifications, feedback cues
  realtime-service   WebSocket gateway: driver location broadcast and booking change fan-out
  functions-service  Named functions under /functions/v1/ (admin-data, OTP, push, AI chat)

Configuration is read from the YAML file, then overridden by environment variables
(a .env file is loaded first when present). Main variables:

  LOG_LEVEL                      DEBUG | INFO | WARN | ERROR
  DATABASE_HOST, DATABASE_PORT, DATABASE_USER, DATABASE_PASSWORD, DATABASE_DATABASE
  RABBITMQ_HOST, RABBITMQ_PORT, RABBITMQ_USER, RABBITMQ_PASSWORD
  REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_TLS
  SERVICES_API_SERVICE, SERVICES_REALTIME_SERVICE, SERVICES_FUNCTIONS_SERVICE   listen ports
  SERVICES_API_URL, SERVICES_FUNCTIONS_URL, SERVICES_SERVICE_KEY
  AUTH_JWT_SECRET, AUTH_ACCESS_TOKEN_TTL, AUTH_REFRESH_TOKEN_TTL
  ADMIN_SESSION_TTL
  OTP_RATE_CAPACITY, OTP_RATE_REFILL_TOKENS, OTP_RATE_REFILL_INTERVAL, OTP_RATE_TTL
  PROVIDERS_FIREBASE_PROJECT_ID, PROVIDERS_FIREBASE_CREDENTIALS_FILE
  PROVIDERS_TWILIO_ACCOUNT_SID, PROVIDERS_TWILIO_AUTH_TOKEN, PROVIDERS_TWILIO_SERVICE_SID
  PROVIDERS_GEMINI_API_KEY, PROVIDERS_GEMINI_MODEL, PROVIDERS_HTTP_TIMEOUT
  TRACING_ENABLED, TRACING_ENDPOINT, TRACING_INSECURE, TRACING_SAMPLE_RATIO
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	var b strings.Builder

	row := func(key string, value any) {
		fmt.Fprintf(&b, "  %-28s %v\n", key, value)
	}

	b.WriteString("Configuration:\n")
	row("mode", cfg.Mode)
	row("log_level", cfg.LogLevel)

	row("database", fmt.Sprintf("%s@%s:%s/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	row("database_password", mask(cfg.Database.Password))
	row("database_pool", fmt.Sprintf("min=%d max=%d", cfg.Database.MinConns, cfg.Database.MaxConns))

	row("rabbitmq", fmt.Sprintf("%s@%s:%s", cfg.RabbitMQ.User, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port))
	row("rabbitmq_password", mask(cfg.RabbitMQ.Password))

	row("redis", fmt.Sprintf("%s db=%d tls=%t", cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.TLS))
	row("redis_password", mask(cfg.Redis.Password))

	row("api_service_port", cfg.Services.APIService)
	row("realtime_service_port", cfg.Services.RealtimeService)
	row("functions_service_port", cfg.Services.FunctionsService)
	row("api_url", cfg.Services.APIURL)
	row("functions_url", cfg.Services.FunctionsURL)
	row("service_key", mask(cfg.Services.ServiceKey))

	row("jwt_secret", mask(cfg.Auth.JWTSecret))
	row("access_token_ttl", cfg.Auth.AccessTokenTTL)
	row("refresh_token_ttl", cfg.Auth.RefreshTokenTTL)
	row("admin_session_ttl", cfg.Admin.SessionTTL)

	row("otp_rate", fmt.Sprintf("capacity=%d refill=%d/%s", cfg.OTP.Capacity, cfg.OTP.RefillTokens, cfg.OTP.RefillInterval))

	row("firebase_project_id", cfg.Providers.FirebaseProjectID)
	row("firebase_credentials", cfg.Providers.FirebaseCredentialsFile)
	row("twilio_account_sid", mask(cfg.Providers.TwilioAccountSID))
	row("twilio_auth_token", mask(cfg.Providers.TwilioAuthToken))
	row("twilio_service_sid", mask(cfg.Providers.TwilioServiceSID))
	row("gemini_api_key", mask(cfg.Providers.GeminiAPIKey))
	row("gemini_model", cfg.Providers.GeminiModel)
	row("provider_timeout", cfg.Providers.HTTPTimeout)

	row("tracing", fmt.Sprintf("enabled=%t endpoint=%s ratio=%g", cfg.Tracing.Enabled, cfg.Tracing.Endpoint, cfg.Tracing.Ratio))

	fmt.Print(b.String())
}

// mask keeps the last four characters of long secrets.
func mask(secret string) string {
	switch {
	case secret == "":
		return "<unset>"
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
