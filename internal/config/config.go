package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv  string `env:"APP_ENV"  env-default:"development"`
	GinMode string `env:"GIN_MODE" env-default:"debug"`
	TZ      string `env:"TZ"       env-default:"UTC"`

	Server    ServerConfig
	DB        DBConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig

	StaticDir string `env:"STATIC_DIR" env-default:"web/public"`
}

type ServerConfig struct {
	Port            int           `env:"PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     env-default:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"20s"`
}

type DBConfig struct {
	Driver  string `env:"DB_DRIVER"  env-default:"postgres"`
	Host    string `env:"DB_HOST"    env-default:"localhost"`
	Port    string `env:"DB_PORT"    env-default:"5432"`
	User    string `env:"DB_USER"    env-default:"postgres"`
	Pass    string `env:"DB_PASS"`
	Name    string `env:"DB_NAME"    env-default:"books"`
	SSLMode string `env:"DB_SSLMODE"`

	SQLitePath string `env:"DB_SQLITE_PATH" env-default:"books.db"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"     env-default:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"     env-default:"5"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" env-default:"10s"`

	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" env-default:"3"`
	ConnectDelay    time.Duration `env:"DB_CONNECT_DELAY"    env-default:"2s"`
	QueryTimeout    time.Duration `env:"DB_QUERY_TIMEOUT"    env-default:"5s"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW"   env-default:"15m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads an optional dotenv file (ENV_FILE, default .env) into the
// process environment and then fills Config from it. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if cfg.DB.SSLMode == "" {
		if cfg.GinMode == "release" {
			cfg.DB.SSLMode = "require"
		} else {
			cfg.DB.SSLMode = "disable"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.AppEnv)
	}

	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Server.Port)
	}
	if c.DB.ConnectAttempts < 1 {
		return errors.New("DB_CONNECT_ATTEMPTS must be at least 1")
	}
	if c.DB.QueryTimeout <= 0 {
		return errors.New("DB_QUERY_TIMEOUT must be positive")
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}

// IsDevelopment reports whether error details may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DB.Host,
		c.DB.User,
		c.DB.Pass,
		c.DB.Name,
		c.DB.Port,
		c.DB.SSLMode,
		c.TZ,
	)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
