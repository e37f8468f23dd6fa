package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type AppConfig struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"prod" validate:"oneof=local dev prod"`
	BaseDir     string            `yaml:"base_dir" env:"BASE_DIR" env-default:"./tdlib-bot" validate:"required"`
	CatalogPath string            `yaml:"catalog_path" env:"CATALOG_PATH"`
	OwnerChatID int64             `yaml:"owner_chat_id" env:"OWNER_CHAT_ID"`
	MetricsAddr string            `yaml:"metrics_addr" env:"METRICS_ADDR" env-default:":9090"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	CRM         CRMConfig         `yaml:"crm"`
	Sessions    SessionsConfig    `yaml:"sessions"`
	Redis       RedisConfig       `yaml:"redis"`
	ProductInfo ProductInfoConfig `yaml:"product_info"`
}

type TelegramConfig struct {
	BotToken string      `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	ApiID    int32       `yaml:"api_id" env:"TELEGRAM_API_ID" validate:"required"`
	ApiHash  string      `yaml:"api_hash" env:"TELEGRAM_API_HASH" validate:"required"`
	Proxy    ProxyConfig `yaml:"proxy" env-prefix:"TELEGRAM_PROXY_"`
}

type ProxyConfig struct {
	Server   string `yaml:"server" env:"SERVER"`
	Port     int32  `yaml:"port" env:"PORT"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
}

type CRMConfig struct {
	URL     string        `yaml:"url" env:"CRM_URL" validate:"required,http_url"`
	Timeout time.Duration `yaml:"timeout" env:"CRM_TIMEOUT" env-default:"10s" validate:"gt=0"`

	PhoneField     string `yaml:"phone_field" env:"CRM_PHONE_FIELD" env-default:"phone" validate:"required"`
	PhoneStripPlus bool   `yaml:"phone_strip_plus" env:"CRM_PHONE_STRIP_PLUS"`
	SourceField    string `yaml:"source_field" env:"CRM_SOURCE_FIELD" env-default:"source" validate:"required"`
	Source         string `yaml:"source" env:"CRM_SOURCE" env-default:"telegram_bot" validate:"required"`
	ItemsField     string `yaml:"items_field" env:"CRM_ITEMS_FIELD" env-default:"items"`

	// после BreakerFailures неудач подряд CRM не дёргаем BreakerCooldown
	BreakerFailures uint32        `yaml:"breaker_failures" env:"CRM_BREAKER_FAILURES" env-default:"5"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" env:"CRM_BREAKER_COOLDOWN" env-default:"30s"`
}

type SessionsConfig struct {
	Store string `yaml:"store" env:"SESSION_STORE" env-default:"memory" validate:"oneof=memory redis"`
	// TTL = 0 — брошенная сессия живёт до /start или рестарта
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"0s" validate:"gte=0"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1m" validate:"gt=0"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"salesbot:session:"`
}

// ProductInfoConfig: селекторы — обычный CSS (классы, потомки, атрибуты)
type ProductInfoConfig struct {
	Enabled       bool          `yaml:"enabled" env:"PRODUCT_INFO_ENABLED"`
	TitleSelector string        `yaml:"title_selector" env:"PRODUCT_INFO_TITLE_SELECTOR" env-default:"h1.product-card-top__title"`
	PriceSelector string        `yaml:"price_selector" env:"PRODUCT_INFO_PRICE_SELECTOR" env-default:"span.product-card-top__price"`
	Timeout       time.Duration `yaml:"timeout" env:"PRODUCT_INFO_TIMEOUT" env-default:"10s"`
}

// Load читает .env, файл конфига (если задан) и переменные окружения
func Load() (*AppConfig, error) {
	// .env необязателен
	_ = godotenv.Load()

	return LoadPath(fetchConfigPath())
}

// LoadPath читает конфиг из path; пустой path — только окружение.
func LoadPath(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфига %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка чтения окружения: %w", err)
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Sessions.Store == StoreRedis && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("invalid config: redis.addr must be set for session store %q", StoreRedis)
	}

	return &cfg, nil
}

func (p ProxyConfig) Enabled() bool {
	return p.Server != "" && p.Port != 0
}

// fetchConfigPath fetches config path from command line flag or environment variable.
// Priority: flag > env > default.
// Default value is empty string.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
