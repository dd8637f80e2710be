package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/richxcame/rider-client/pkg/i18n"
)

// Config holds all rider client configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Polling   PollingConfig
	Payments  PaymentsConfig
	Realtime  RealtimeConfig
	Chat      ChatStoreConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Routing   RoutingConfig
	Callback  CallbackConfig
	Telemetry TelemetryConfig
	Secrets   SecretsConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Name        string
	Environment string
	Language    string
	LogLevel    string
}

// APIConfig describes the ride backend
type APIConfig struct {
	BaseURL      string
	AccessToken  string
	TokenRef     string // secret reference resolved at startup when AccessToken is empty
	Timeout      time.Duration
	RetryGets    bool
	BreakerName  string
	BreakerFails int
}

// PollingConfig holds the refresh cadence of the polling components
type PollingConfig struct {
	SearchDebounce  time.Duration
	BidInterval     time.Duration
	RideInterval    time.Duration
	ConfirmAttempts int
	ConfirmInterval time.Duration
	RedirectDelay   time.Duration
}

// PaymentsConfig holds payment processor settings
type PaymentsConfig struct {
	Flow            string // "embedded" or "link"
	Currency        string
	MerchantAccount string
	ReturnURL       string
	StripeKey       string
	StripeKeyRef    string
	PaymentMethod   string // default card payment method for non-interactive confirmation
}

// RealtimeConfig selects the chat transport
type RealtimeConfig struct {
	Transport    string // "websocket" or "nats"
	WebSocketURL string
	NATSURL      string
	EventType    string
}

// ChatStoreConfig configures persistent chat storage
type ChatStoreConfig struct {
	Store       string // "api" or "postgres"
	DatabaseURL string
	MaxConns    int
}

// CacheConfig configures the query cache
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	RedisHost string
	RedisPort string
	Password  string
	DB        int
	TTL       time.Duration
}

// StorageConfig configures report attachment uploads
type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	BaseURL   string
	MaxSizeMB int
	URLExpiry time.Duration // presigned links when set; objects are public otherwise
}

// RoutingConfig points at an OSRM server
type RoutingConfig struct {
	OSRMURL string
	Timeout time.Duration
}

// CallbackConfig configures the local payment-return server
type CallbackConfig struct {
	Port        string
	CORSOrigins string
}

// TelemetryConfig holds tracing and error-reporting settings
type TelemetryConfig struct {
	OTLPEndpoint string
	SentryDSN    string
	Metrics      bool
}

// SecretsConfig selects the secret backend
type SecretsConfig struct {
	Provider     string
	VaultAddress string
	VaultToken   string
	VaultMount   string
	AWSRegion    string
	GCPProjectID string
	GCPCredsFile string
	CacheTTL     time.Duration
}

// Load loads configuration from environment variables
func Load(appName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        appName,
			Environment: getEnv("ENVIRONMENT", "development"),
			Language:    i18n.Normalize(getEnv("RIDER_LANGUAGE", "en")),
			LogLevel:    getEnv("LOG_LEVEL", ""),
		},
		API: APIConfig{
			BaseURL:      strings.TrimRight(getEnv("RIDER_API_URL", "http://localhost:3000"), "/"),
			AccessToken:  getEnv("RIDER_ACCESS_TOKEN", ""),
			TokenRef:     getEnv("RIDER_ACCESS_TOKEN_REF", ""),
			Timeout:      getEnvAsDuration("RIDER_API_TIMEOUT", 15*time.Second),
			RetryGets:    getEnvAsBool("RIDER_API_RETRY_GETS", false),
			BreakerName:  getEnv("RIDER_API_BREAKER", "ride-backend"),
			BreakerFails: getEnvAsInt("RIDER_API_BREAKER_FAILURES", 5),
		},
		Polling: PollingConfig{
			SearchDebounce:  getEnvAsDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),
			BidInterval:     getEnvAsDuration("BID_POLL_INTERVAL", 5*time.Second),
			RideInterval:    getEnvAsDuration("RIDE_POLL_INTERVAL", 20*time.Second),
			ConfirmAttempts: getEnvAsInt("PAYMENT_CONFIRM_ATTEMPTS", 30),
			ConfirmInterval: getEnvAsDuration("PAYMENT_CONFIRM_INTERVAL", time.Second),
			RedirectDelay:   getEnvAsDuration("CANCEL_REDIRECT_DELAY", 2*time.Second),
		},
		Payments: PaymentsConfig{
			Flow:            getEnv("PAYMENT_FLOW", "embedded"),
			Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
			MerchantAccount: getEnv("PAYMENT_MERCHANT_ACCOUNT", ""),
			ReturnURL:       getEnv("PAYMENT_RETURN_URL", "http://localhost:8085/return"),
			StripeKey:       getEnv("STRIPE_API_KEY", ""),
			StripeKeyRef:    getEnv("STRIPE_API_KEY_REF", ""),
			PaymentMethod:   getEnv("STRIPE_PAYMENT_METHOD", ""),
		},
		Realtime: RealtimeConfig{
			Transport:    getEnv("REALTIME_TRANSPORT", "websocket"),
			WebSocketURL: getEnv("REALTIME_WS_URL", "ws://localhost:3000/realtime"),
			NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
			EventType:    getEnv("REALTIME_EVENT_TYPE", "chat_message"),
		},
		Chat: ChatStoreConfig{
			Store:       getEnv("CHAT_STORE", "api"),
			DatabaseURL: getEnv("CHAT_DATABASE_URL", ""),
			MaxConns:    getEnvAsInt("CHAT_DB_MAX_CONNS", 4),
		},
		Cache: CacheConfig{
			Backend:   getEnv("CACHE_BACKEND", "memory"),
			RedisHost: getEnv("REDIS_HOST", "localhost"),
			RedisPort: getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			TTL:       getEnvAsDuration("CACHE_TTL", 30*time.Second),
		},
		Storage: StorageConfig{
			Bucket:    getEnv("REPORT_MEDIA_BUCKET", ""),
			Region:    getEnv("REPORT_MEDIA_REGION", "us-east-1"),
			Endpoint:  getEnv("REPORT_MEDIA_ENDPOINT", ""),
			AccessKey: getEnv("REPORT_MEDIA_ACCESS_KEY", ""),
			SecretKey: getEnv("REPORT_MEDIA_SECRET_KEY", ""),
			BaseURL:   getEnv("REPORT_MEDIA_BASE_URL", ""),
			MaxSizeMB: getEnvAsInt("REPORT_MEDIA_MAX_MB", 20),
			URLExpiry: getEnvAsDuration("REPORT_MEDIA_URL_EXPIRY", 0),
		},
		Routing: RoutingConfig{
			OSRMURL: strings.TrimRight(getEnv("OSRM_URL", ""), "/"),
			Timeout: getEnvAsDuration("OSRM_TIMEOUT", 2*time.Second),
		},
		Callback: CallbackConfig{
			Port:        getEnv("CALLBACK_PORT", "8085"),
			CORSOrigins: getEnv("CALLBACK_CORS_ORIGINS", "*"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SentryDSN:    getEnv("SENTRY_DSN", ""),
			Metrics:      getEnvAsBool("METRICS_ENABLED", true),
		},
		Secrets: SecretsConfig{
			Provider:     getEnv("SECRETS_PROVIDER", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
			VaultMount:   getEnv("VAULT_MOUNT", "secret"),
			AWSRegion:    getEnv("AWS_REGION", ""),
			GCPProjectID: getEnv("GCP_PROJECT_ID", ""),
			GCPCredsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			CacheTTL:     getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: RIDER_API_URL is required")
	}
	switch c.Payments.Flow {
	case "embedded", "link":
	default:
		return fmt.Errorf("config: unsupported PAYMENT_FLOW %q", c.Payments.Flow)
	}
	switch c.Realtime.Transport {
	case "websocket", "nats":
	default:
		return fmt.Errorf("config: unsupported REALTIME_TRANSPORT %q", c.Realtime.Transport)
	}
	if c.Polling.ConfirmAttempts <= 0 {
		return fmt.Errorf("config: PAYMENT_CONFIRM_ATTEMPTS must be positive")
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *CacheConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
