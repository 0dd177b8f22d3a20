package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// AppConfig - настройки процесса. Читаются из окружения и, если задан,
// из YAML файла; переменные окружения имеют приоритет.
type AppConfig struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"prod" env-description:"dev or prod"`
	Host        string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port        int    `yaml:"port" env:"PORT" env-default:"8000"`
	APISecret   string `yaml:"api_secret" env:"API_SECRET" env-required:"true" env-description:"shared secret expected in x-api-key"`
	TenantsPath string `yaml:"tenants_path" env:"TENANTS_PATH" env-default:"configs.json"`
	LogDir      string `yaml:"log_dir" env:"LOG_DIR" env-description:"write daily log files here when set"`

	Partner  PartnerConfig  `yaml:"partner"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// PartnerConfig - доступ к партнерскому API
type PartnerConfig struct {
	URLPattern string        `yaml:"url_pattern" env:"PARTNER_URL_PATTERN" env-default:"https://ibronevik.ru/taxi/c/{tenant}/api/v1/"`
	Timeout    time.Duration `yaml:"timeout" env:"PARTNER_TIMEOUT" env-default:"15s"`
}

// TelegramConfig - бот через TDLib
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token" env:"TG_BOT_TOKEN" env-required:"true"`
	APIID     int32  `yaml:"api_id" env:"TELEGRAM_API_ID" env-required:"true"`
	APIHash   string `yaml:"api_hash" env:"TELEGRAM_API_HASH" env-required:"true"`
	DataDir   string `yaml:"data_dir" env:"TDLIB_DIR" env-default:"./tdlib-bot"`
	Verbosity int32  `yaml:"verbosity" env:"TDLIB_VERBOSITY" env-default:"1"`
}

// PathEnv - переменная с путем к YAML файлу, если флаг не задан
const PathEnv = "CONFIG_PATH"

// Path возвращает путь из флага, иначе из CONFIG_PATH.
// Вызывается после загрузки .env, чтобы значение оттуда тоже учитывалось.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(PathEnv)
}

// Load читает конфиг из файла path (если не пуст) и окружения
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Env != EnvDev && c.Env != EnvProd {
		return fmt.Errorf("config: APP_ENV must be %q or %q, got %q", EnvDev, EnvProd, c.Env)
	}
	if c.APISecret == "" {
		return fmt.Errorf("config: API_SECRET is empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid PORT %d", c.Port)
	}
	if c.Partner.Timeout <= 0 {
		return fmt.Errorf("config: PARTNER_TIMEOUT must be positive")
	}
	return nil
}

// Addr - адрес HTTP сервера
func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Usage - описание переменных окружения для --help
func Usage() string {
	var cfg AppConfig
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
