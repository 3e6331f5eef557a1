package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatsync/internal/logger"
)

// loadEnv читает .env только вне production (в контейнере/prod конфиг только из env).
func loadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		path := dir + "/.env"
		f, err := os.Open(path)
		if err == nil {
			loadEnvFrom(f)
			f.Close()
			return
		}
		parent := strings.TrimSuffix(dir, "/")
		if idx := strings.LastIndex(parent, "/"); idx <= 0 {
			return
		} else {
			dir = parent[:idx]
			if dir == "" {
				dir = "/"
			}
		}
	}
}

func loadEnvFrom(f *os.File) {
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		if len(val) >= 2 && (val[0] == '"' && val[len(val)-1] == '"' || val[0] == '\'' && val[len(val)-1] == '\'') {
			val = val[1 : len(val)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// GeneratorConfig — синтетический источник уведомлений (когда нет живого фида).
type GeneratorConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	Chance          float64 `yaml:"chance"`
}

// Config содержит настройки клиентского демона синхронизации.
// Приоритет: переменные окружения > YAML-файл > значения по умолчанию.
type Config struct {
	// Локальный HTTP-шлюз для UI
	GatewayAddr  string        `yaml:"gateway_addr"`
	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`
	IdleTimeout  time.Duration `yaml:"-"`

	// Транспорт (push endpoint)
	SocketURL string `yaml:"socket_url"`

	// Текущий пользователь (выдаётся сервисом авторизации)
	UserID string `yaml:"user_id"`

	// REST-коллаборатор для начальной загрузки списков. Пустой — отключён.
	NotificationServiceURL string `yaml:"notification_service_url"`

	// Redis для настроек уведомлений. Пустой — настройки в памяти.
	RedisURL string `yaml:"redis_url"`

	// Подтверждения отправки (имитация ack-канала)
	SentDelay      time.Duration `yaml:"-"`
	DeliveredDelay time.Duration `yaml:"-"`

	// Генератор уведомлений
	Generator GeneratorConfig `yaml:"generator"`

	// CORS
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`

	// Логирование
	LogLevel string `yaml:"log_level"`
}

// yamlConfig — промежуточная структура для парсинга YAML.
type yamlConfig struct {
	GatewayAddr            string          `yaml:"gateway_addr"`
	ReadTimeout            int             `yaml:"read_timeout"`
	WriteTimeout           int             `yaml:"write_timeout"`
	IdleTimeout            int             `yaml:"idle_timeout"`
	SocketURL              string          `yaml:"socket_url"`
	UserID                 string          `yaml:"user_id"`
	NotificationServiceURL string          `yaml:"notification_service_url"`
	RedisURL               string          `yaml:"redis_url"`
	SentDelayMs            int             `yaml:"sent_delay_ms"`
	DeliveredDelayMs       int             `yaml:"delivered_delay_ms"`
	Generator              GeneratorConfig `yaml:"generator"`
	CORSAllowedOrigins     string          `yaml:"cors_allowed_origins"`
	LogLevel               string          `yaml:"log_level"`
}

// Load загружает конфигурацию.
// Сначала подгружаются переменные из .env (если есть), затем YAML и env (env имеет приоритет).
func Load() *Config {
	loadEnv()
	// Значения по умолчанию
	yc := yamlConfig{
		GatewayAddr:        ":8090",
		ReadTimeout:        15,
		WriteTimeout:       15,
		IdleTimeout:        60,
		SocketURL:          "ws://localhost:8080/ws",
		SentDelayMs:        600,
		DeliveredDelayMs:   1500,
		Generator:          GeneratorConfig{IntervalSeconds: 30, Chance: 0.3},
		CORSAllowedOrigins: "*",
		LogLevel:           "info",
	}

	paths := []string{os.Getenv("CONFIG_PATH"), "config/client.yaml"}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &yc); err != nil {
			logger.Errorf("config: ошибка парсинга %s: %v (используются значения по умолчанию)", path, err)
		} else {
			logger.Infof("config: загружен %s", path)
		}
		break
	}

	cfg := &Config{
		GatewayAddr:            envStr("GATEWAY_ADDR", yc.GatewayAddr),
		ReadTimeout:            time.Duration(envInt("READ_TIMEOUT", yc.ReadTimeout)) * time.Second,
		WriteTimeout:           time.Duration(envInt("WRITE_TIMEOUT", yc.WriteTimeout)) * time.Second,
		IdleTimeout:            time.Duration(envInt("IDLE_TIMEOUT", yc.IdleTimeout)) * time.Second,
		SocketURL:              envStr("SOCKET_URL", yc.SocketURL),
		UserID:                 envStr("USER_ID", yc.UserID),
		NotificationServiceURL: envStr("NOTIFICATION_SERVICE_URL", yc.NotificationServiceURL),
		RedisURL:               envStr("REDIS_URL", yc.RedisURL),
		SentDelay:              time.Duration(envInt("SENT_DELAY_MS", yc.SentDelayMs)) * time.Millisecond,
		DeliveredDelay:         time.Duration(envInt("DELIVERED_DELAY_MS", yc.DeliveredDelayMs)) * time.Millisecond,
		Generator: GeneratorConfig{
			IntervalSeconds: envInt("GENERATOR_INTERVAL_SECONDS", yc.Generator.IntervalSeconds),
			Chance:          envFloat("GENERATOR_CHANCE", yc.Generator.Chance),
		},
		CORSAllowedOrigins: envStr("CORS_ALLOWED_ORIGINS", yc.CORSAllowedOrigins),
		LogLevel:           envStr("LOG_LEVEL", yc.LogLevel),
	}

	return cfg
}

// envStr возвращает значение переменной окружения или fallback.
func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt возвращает числовое значение переменной окружения или fallback.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envFloat возвращает дробное значение переменной окружения или fallback.
func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
