package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Shop       ShopConfig       `yaml:"shop"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`

	// lock_timeout сессии в мс: ожидание FOR UPDATE дольше этого даёт 55P03
	LockTimeout int `yaml:"lock_timeout_ms" env-default:"5000"`
}

// DSN собирает строку подключения для lib/pq. Неизвестные параметры lib/pq передаёт серверу как настройки сессии
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&lock_timeout=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.LockTimeout)
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"` // минуты
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.TokenTTL) * time.Minute
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// RedisConfig: при пустом Addr кэш выключен
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type CacheConfig struct {
	WalletTTL  time.Duration `yaml:"wallet_ttl" env-default:"30s"`
	ProductTTL time.Duration `yaml:"product_ttl" env-default:"5m"`
}

// ShopConfig: размеры выдачи и стартовый баланс новых покупателей
type ShopConfig struct {
	PageSize        int    `yaml:"page_size" env-default:"10"`
	HomeProducts    int    `yaml:"home_products" env-default:"8"`
	SearchLimit     int    `yaml:"search_limit" env-default:"40"`
	RelatedLimit    int    `yaml:"related_limit" env-default:"4"`
	StartingBalance string `yaml:"starting_balance" env-default:"0"`
}

// StartingBalanceAmount паникует на неверной сумме: это ошибка конфигурации
func (s ShopConfig) StartingBalanceAmount() decimal.Decimal {
	amount, err := decimal.NewFromString(s.StartingBalance)
	if err != nil || amount.IsNegative() {
		panic("invalid shop.starting_balance: " + s.StartingBalance)
	}
	return amount
}

// MustLoad - если не загружаем - паникуем.
// Перед чтением конфига подхватывает .env, если он есть
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("can't load .env: %v", err)
	}

	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
