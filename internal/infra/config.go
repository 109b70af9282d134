package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации консоли.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig — где живет бэкенд мониторинга воркшопов.
// Мониторинг агентов и остальные ресурсы обслуживаются под разными базовыми путями.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	MonitoringPath string        `mapstructure:"monitoring_path"`
	APIPath        string        `mapstructure:"api_path"`
	Timeout        time.Duration `mapstructure:"timeout"`

	// Mock включает встроенный имитатор бэкенда (демо без реального мониторинга)
	Mock        bool          `mapstructure:"mock"`
	MockLatency time.Duration `mapstructure:"mock_latency"`
}

// PollingConfig — интервалы опроса по ресурсам.
type PollingConfig struct {
	AgentsInterval     time.Duration `mapstructure:"agents_interval"`
	ApprovalsInterval  time.Duration `mapstructure:"approvals_interval"`
	EvolutionsInterval time.Duration `mapstructure:"evolutions_interval"`
	StatisticsInterval time.Duration `mapstructure:"statistics_interval"`
	OversightInterval  time.Duration `mapstructure:"oversight_interval"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`

	// Пауза между ручной проверкой здоровья и перечитыванием агентов
	HealthCheckRefreshDelay time.Duration `mapstructure:"health_check_refresh_delay"`
}

// RedisConfig описывает подключение к Redis (канал эскалаций). Пустой addr отключает публикацию.
type RedisConfig struct {
	Addr              string        `mapstructure:"addr"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	EscalationLockTTL time.Duration `mapstructure:"escalation_lock_ttl"`
}

// DatabaseConfig описывает подключение к PostgreSQL. Пустой url отключает журнал аудита.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// EngineConfig — надежность вызовов бэкенда и буфер журнала.
type EngineConfig struct {
	AuditBufferSize    int           `mapstructure:"audit_buffer_size"`
	AuditBatchSize     int           `mapstructure:"audit_batch_size"`
	AuditFlushInterval time.Duration `mapstructure:"audit_flush_interval"`

	RetryAttempts uint    `mapstructure:"retry_attempts"`
	RateLimit     float64 `mapstructure:"rate_limit"`
	RateBurst     int     `mapstructure:"rate_burst"`

	// Настройки Circuit Breaker для бэкенда мониторинга
	CBMaxRequests         uint32        `mapstructure:"cb_max_requests"`
	CBInterval            time.Duration `mapstructure:"cb_interval"`
	CBTimeout             time.Duration `mapstructure:"cb_timeout"`
	CBConsecutiveFailures uint32        `mapstructure:"cb_consecutive_failures"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	return loadConfig(".", "./configs")
}

func loadConfig(paths ...string) (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config") // имя файла без расширения
	v.SetConfigType("yaml")   // формат
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("backend.base_url", "http://localhost:8086")
	v.SetDefault("backend.monitoring_path", "/api/monitoring")
	v.SetDefault("backend.api_path", "/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.mock", false)
	v.SetDefault("backend.mock_latency", 300*time.Millisecond)

	v.SetDefault("polling.agents_interval", 30*time.Second)
	v.SetDefault("polling.approvals_interval", 30*time.Second)
	v.SetDefault("polling.evolutions_interval", 30*time.Second)
	v.SetDefault("polling.statistics_interval", 60*time.Second)
	v.SetDefault("polling.oversight_interval", 30*time.Second)
	v.SetDefault("polling.request_timeout", 10*time.Second)
	v.SetDefault("polling.health_check_refresh_delay", 2*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.escalation_lock_ttl", 24*time.Hour)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("engine.audit_buffer_size", 1000)
	v.SetDefault("engine.audit_batch_size", 100)
	v.SetDefault("engine.audit_flush_interval", 1*time.Second)
	v.SetDefault("engine.retry_attempts", 3)
	v.SetDefault("engine.rate_limit", 50)
	v.SetDefault("engine.rate_burst", 10)
	v.SetDefault("engine.cb_max_requests", 3)
	v.SetDefault("engine.cb_interval", 5*time.Second)
	v.SetDefault("engine.cb_timeout", 30*time.Second)
	v.SetDefault("engine.cb_consecutive_failures", 5)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// MaxAuditBatchSize — предел пакета журнала: у PostgreSQL не больше 65535 параметров
// в запросе, на запись уходит 10.
const MaxAuditBatchSize = 65535 / 10

// Validate проверяет то, без чего консоль не сможет работать.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("config: backend.base_url is required")
	}
	intervals := map[string]time.Duration{
		"polling.agents_interval":     c.Polling.AgentsInterval,
		"polling.approvals_interval":  c.Polling.ApprovalsInterval,
		"polling.evolutions_interval": c.Polling.EvolutionsInterval,
		"polling.statistics_interval": c.Polling.StatisticsInterval,
		"polling.oversight_interval":  c.Polling.OversightInterval,
	}
	for key, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", key, d)
		}
	}
	if c.Engine.AuditBatchSize <= 0 || c.Engine.AuditBatchSize > MaxAuditBatchSize {
		return fmt.Errorf("config: engine.audit_batch_size must be in 1..%d, got %d", MaxAuditBatchSize, c.Engine.AuditBatchSize)
	}
	return nil
}
