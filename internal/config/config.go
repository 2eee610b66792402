package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8000"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"json"`
	FilePath   string `yaml:"file_path" env:"TASKS_FILE" env-default:"tasklist.json"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/tasks.db"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" env:"METRICS_PATH" env-default:"/metrics"`
}

type TelegramConfig struct {
	Token string `yaml:"token" env:"TELEGRAM_TOKEN"`
	Debug bool   `yaml:"debug" env:"TELEGRAM_DEBUG" env-default:"false"`
}

type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// defaults - значения, для которых нулевое значение осмысленно (timeout 0s, enabled false).
// env-default для них не подходит: cleanenv подставляет его поверх нуля из YAML.
func defaults() Config {
	return Config{
		HTTP:    HTTPConfig{Timeout: 5 * time.Second},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load читает YAML-файл; если файла нет - только переменные окружения.
// Переменные окружения всегда перекрывают значения из файла.
func Load(configPath string) (Config, error) {
	cfg := defaults()

	// если путь пустой - просто env
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg, cfg.Validate()
	}

	// пробуем файл, если его нет - env
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("read config %q: %w", configPath, err)
		}
		cfg = defaults()
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "json":
		if strings.TrimSpace(c.Storage.FilePath) == "" {
			return errors.New("storage.file_path is required for json driver")
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("storage.sqlite_path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.HTTP.Timeout < 0 {
		return errors.New("http.timeout must not be negative")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}
