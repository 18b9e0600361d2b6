package environments

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Remote   RemoteConfig
	PMS      PMSConfig
	Handoff  HandoffConfig
	Dispatch DispatchConfig
	Alert    AlertConfig
	Auth     AuthConfig
	S3       S3Config
}

type ServerConfig struct {
	Port          string
	MaxUploadSize int64
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Key      string
}

type MongoConfig struct {
	URI        string
	Username   string
	Password   string
	Database   string
	Collection string
}

// Remote store backends.
const (
	RemoteStoreValkey = "valkey"
	RemoteStoreMongo  = "mongo"
	RemoteStoreNone   = "none"
)

type RemoteConfig struct {
	Store   string
	Timeout time.Duration
}

type PMSConfig struct {
	BaseURL string
	Timeout time.Duration
}

type HandoffConfig struct {
	WebhookURL string
	AuthKey    string
	Timeout    time.Duration
}

type DispatchConfig struct {
	BulkInterval    time.Duration
	SendAllInterval time.Duration
	Timezone        string
}

type AlertConfig struct {
	WebhookURL string
}

type AuthConfig struct {
	CheckinsAPIKey string
	ReportsAPIKey  string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:          GetEnv("SERVER_PORT", "8080"),
			MaxUploadSize: int64(GetEnvAsInt("SERVER_MAX_UPLOAD_MB", 20)) << 20,
		},
		Log: LogConfig{
			Level: GetEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "checkin"),
			Password: GetEnv("DB_PASSWORD", "checkin123"),
			DBName:   GetEnv("DB_NAME", "checkin_dispatch"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
			Key:      GetEnv("REDIS_HISTORY_KEY", "checkin:dispatch_history"),
		},
		Mongo: MongoConfig{
			URI:        GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Username:   GetEnv("MONGO_USERNAME", ""),
			Password:   GetEnv("MONGO_PASSWORD", ""),
			Database:   GetEnv("MONGO_DATABASE", "checkin_dispatch"),
			Collection: GetEnv("MONGO_COLLECTION", "dispatch_history"),
		},
		Remote: RemoteConfig{
			Store:   strings.ToLower(GetEnv("REMOTE_STORE", RemoteStoreValkey)),
			Timeout: GetEnvAsDuration("REMOTE_TIMEOUT", 5*time.Second),
		},
		PMS: PMSConfig{
			BaseURL: GetEnv(
				"PMS_REPORT_URL",
				"https://pms.audaar.com.br/web-api/vivakey/rest/report/allestablishment/reservation/created",
			),
			Timeout: time.Duration(GetEnvAsInt("PMS_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Handoff: HandoffConfig{
			WebhookURL: GetEnv("HANDOFF_WEBHOOK_URL", ""),
			AuthKey:    GetEnv("HANDOFF_AUTH_KEY", ""),
			Timeout:    time.Duration(GetEnvAsInt("HANDOFF_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Dispatch: DispatchConfig{
			BulkInterval:    GetEnvAsDuration("BULK_SEND_INTERVAL", time.Second),
			SendAllInterval: GetEnvAsDuration("SEND_ALL_INTERVAL", 1500*time.Millisecond),
			Timezone:        GetEnv("TIMEZONE", "America/Sao_Paulo"),
		},
		Alert: AlertConfig{
			WebhookURL: GetEnv("ALERT_WEBHOOK_URL", ""),
		},
		Auth: AuthConfig{
			CheckinsAPIKey: GetEnv("CHECKINS_API_KEY", ""),
			ReportsAPIKey:  GetEnv("REPORTS_API_KEY", ""),
		},
		S3: S3Config{
			Bucket:          GetEnv("S3_BUCKET", ""),
			Region:          GetEnv("S3_REGION", "us-east-1"),
			Endpoint:        GetEnv("S3_ENDPOINT", ""),
			AccessKeyID:     GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          GetEnv("S3_PREFIX", "checkin-reports"),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
