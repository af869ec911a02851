package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса, загружается из config.toml
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        DatabaseConfig    `toml:"database"`
	Logs            LogsConfig        `toml:"logs"`
	Metrics         MetricsConfig     `toml:"metrics"`
	Kafka           KafkaConfig       `toml:"kafka"`
	Redis           RedisConfig       `toml:"redis"`
	ProviderService IntegrationConfig `toml:"provider_service"`
	PaymentService  IntegrationConfig `toml:"payment_service"`
	Booking         BookingConfig     `toml:"booking"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN возвращает строку подключения к PostgreSQL
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// KafkaConfig настройки публикации доменных событий
type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// RedisConfig настройки Redis (lock для sweeper)
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// IntegrationConfig настройки HTTP клиента внешнего сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// BookingConfig бизнес-параметры движка бронирований
type BookingConfig struct {
	// ConfirmationSLAHours время на подтверждение брони провайдером,
	// после которого sweeper отменяет бронь с полным возвратом
	ConfirmationSLAHours int `toml:"confirmation_sla_hours"`

	// SweepIntervalMinutes период запуска auto-decline sweeper
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`

	// NoShowGraceMinutes сколько минут после начала записи провайдер
	// должен подождать, прежде чем отметить no-show
	NoShowGraceMinutes int `toml:"no_show_grace_minutes"`

	// ServiceFeePercent комиссия платформы в процентах от стоимости услуг
	ServiceFeePercent float64 `toml:"service_fee_percent"`

	// DefaultCurrency валюта по умолчанию, если провайдер её не задал
	DefaultCurrency string `toml:"default_currency"`
}

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Booking.ConfirmationSLAHours == 0 {
		cfg.Booking.ConfirmationSLAHours = 48
	}
	if cfg.Booking.SweepIntervalMinutes == 0 {
		cfg.Booking.SweepIntervalMinutes = 60
	}
	if cfg.Booking.NoShowGraceMinutes == 0 {
		cfg.Booking.NoShowGraceMinutes = 15
	}
	if cfg.Booking.DefaultCurrency == "" {
		cfg.Booking.DefaultCurrency = "USD"
	}
}
