package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Redis  RedisConfig  `yaml:"redis"`
	CORS   CORSConfig   `yaml:"cors"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Required turns a missing credential or schema failure into a fatal startup error.
	Required         bool   `yaml:"required"`
	ConnectionString string `yaml:"connection_string"`
	TableName        string `yaml:"table_name"`
	DSN              string `yaml:"dsn"`
	SQLitePath       string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

type MQTTConfig struct {
	URL         string `yaml:"url"`
	Topic       string `yaml:"topic"`
	MetricsAddr string `yaml:"metrics_addr"`
}

const (
	BackendAzure    = "azure"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Mode: "development"},
		Store: StoreConfig{
			Backend:   BackendAzure,
			TableName: "modelpredictions",
		},
		CORS: CORSConfig{AllowedOrigins: "*"},
		MQTT: MQTTConfig{
			URL:         "tcp://localhost:1883",
			Topic:       "predictions/input",
			MetricsAddr: ":9090",
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	serverPort, err := getIntEnv("SERVER_PORT", cfg.Server.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	required, err := getBoolEnv("STORE_REQUIRED", cfg.Store.Required)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_REQUIRED: %w", err)
	}
	cfg.Store.Required = required

	cfg.Log.Mode = getEnv("LOG_MODE", cfg.Log.Mode)
	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.ConnectionString = getEnv("AZURE_STORAGE_CONNECTION_STRING", cfg.Store.ConnectionString)
	cfg.Store.TableName = getEnv("TABLE_NAME", cfg.Store.TableName)
	cfg.Store.DSN = getEnv("DB_DSN", cfg.Store.DSN)
	cfg.Store.SQLitePath = getEnv("SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.MQTT.URL = getEnv("MQTT_URL", cfg.MQTT.URL)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.MetricsAddr = getEnv("METRICS_ADDR", cfg.MQTT.MetricsAddr)

	switch cfg.Store.Backend {
	case BackendAzure, BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
