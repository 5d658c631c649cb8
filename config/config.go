package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Push          PushConfig
	Redis         RedisConfig
	AMQP          AMQPConfig
	Notifications NotificationsConfig
}

type ServerConfig struct {
	Port         string        `envconfig:"PORT"`
	Env          string        `envconfig:"APP_ENV"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`
	RateLimit    int           `envconfig:"RATE_LIMIT"`
}

type DatabaseConfig struct {
	DSN             string        `envconfig:"DB_DSN"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME"`
	// MigrateUsers creates the users table locally; in production it belongs to the account service.
	MigrateUsers bool `envconfig:"DB_MIGRATE_USERS"`
}

type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY"`
	Issuer       string        `envconfig:"JWT_ISSUER"`
}

type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS"`
}

type PushConfig struct {
	// FirebaseServiceAccountPath enables FCM mobile push when set.
	FirebaseServiceAccountPath string `envconfig:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	ClientBuffer               int    `envconfig:"WS_CLIENT_BUFFER"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"` // empty disables the cross-instance relay
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB"`
}

type AMQPConfig struct {
	URL      string `envconfig:"AMQP_URL"` // empty disables the event bridge
	Exchange string `envconfig:"AMQP_EXCHANGE"`
	Queue    string `envconfig:"AMQP_QUEUE"`
}

type NotificationsConfig struct {
	RecentWindow    time.Duration `envconfig:"NOTIFICATIONS_RECENT_WINDOW"`
	RetentionMonths int           `envconfig:"NOTIFICATIONS_RETENTION_MONTHS"`
	CleanupInterval time.Duration `envconfig:"NOTIFICATIONS_CLEANUP_INTERVAL"`
}

// Defaults returns the development configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			LogLevel:     "INFO",
			RateLimit:    100,
		},
		Database: DatabaseConfig{
			DSN:             "spacerent:spacerent@tcp(localhost:3306)/spacerent?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
			MigrateUsers:    true,
		},
		JWT: JWTConfig{
			AccessSecret: "change-me-in-production",
			AccessExpiry: 15 * time.Minute,
			Issuer:       "spacerent",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Push: PushConfig{
			ClientBuffer: 256,
		},
		AMQP: AMQPConfig{
			Exchange: "rental_events",
			Queue:    "messaging.notifications",
		},
		Notifications: NotificationsConfig{
			RecentWindow:    30 * 24 * time.Hour,
			RetentionMonths: 3,
			CleanupInterval: 24 * time.Hour,
		},
	}
}

// Load reads an optional .env file and overlays the environment on top of Defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := Defaults()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
