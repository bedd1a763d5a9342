package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	GoEnv    string `yaml:"go_env" env:"GO_ENV" env-default:"dev"` // dev/prod
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	FEURL    string `yaml:"fe_url" env:"FE_URL" env-default:"http://localhost:5173"` // CORS

	Postgres Postgres `yaml:"postgres"`
	JWT      JWT      `yaml:"jwt"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Upload   Upload   `yaml:"upload"`
}

type Postgres struct {
	// あれば最優先
	URL      string `yaml:"url" env:"DATABASE_URL"`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DB       string `yaml:"db" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type JWT struct {
	Secret    string        `yaml:"secret" env:"JWT_SECRET"`
	AccessTTL time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
}

// Addrが空ならキャッシュなし
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"STORE_HOURS_CACHE_TTL" env-default:"10m"`
}

// Brokersが空ならイベントは送らない
type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	OrderTopic string   `yaml:"order_topic" env:"KAFKA_ORDER_TOPIC" env-default:"merkado.order-events"`
}

type Upload struct {
	Dir           string `yaml:"dir" env:"UPLOAD_DIR" env-default:"./uploads"`
	MaxProofBytes int64  `yaml:"max_proof_bytes" env:"MAX_PROOF_BYTES" env-default:"5242880"`
}

// Loadは .env → (CONFIG_PATH のyaml) → 環境変数 の順に読む
func Load() (Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	//必須チェック
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	if c.Postgres.URL == "" {
		if c.Postgres.User == "" {
			return errors.New("POSTGRES_USER is required")
		}
		if c.Postgres.Password == "" {
			return errors.New("POSTGRES_PASSWORD is required")
		}
		if c.Postgres.DB == "" {
			return errors.New("POSTGRES_DB is required")
		}
	}
	if c.Upload.MaxProofBytes <= 0 {
		return errors.New("MAX_PROOF_BYTES must be positive")
	}
	return nil
}

// ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func (p Postgres) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode,
	)
}
