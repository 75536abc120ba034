package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log        Log         `yaml:"log"`
	HTTP       HTTP        `yaml:"http"`
	OpenAI     ModelConfig `yaml:"openai"`
	Search     Search      `yaml:"search"`
	DB         DB          `yaml:"db"`
	ClickHouse ClickHouse  `yaml:"clickhouse"`
	VM         VM          `yaml:"vm"`
	Prompt     Prompt      `yaml:"prompt"`
}

type ModelConfig struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX" validate:"required"`
	// Model or deployment name
	Model string `yaml:"model" example:"gpt-4o-mini" validate:"required"`
}

type Search struct {
	// Base url of the full-text search service
	URL string `yaml:"url" example:"https://search.internal:9200" validate:"required"`
	// API key sent with every search request
	APIKey string `yaml:"api_key"`
	// Index holding server ownership / inventory documents
	InventoriesIndex string `yaml:"inventories_index" example:"inventories" validate:"required"`
	// Index holding past incident reports
	IncidentsIndex string `yaml:"incidents_index" example:"incidents" validate:"required"`
}

type DB struct {
	// Postgres username
	User string `yaml:"user" example:"postgres" validate:"required"`
	// Postgres password
	Pass string `yaml:"pass" validate:"required"`
	// Postgres host
	Host string `yaml:"host" example:"localhost:5432" validate:"required"`
	// Postgres database name
	Database string `yaml:"database" example:"arclog" validate:"required"`
}

type ClickHouse struct {
	// ClickHouse address
	Addr string `yaml:"addr" example:"localhost:9000" validate:"required"`
	// ClickHouse database name
	Database string `yaml:"database" example:"logs" validate:"required"`
	// ClickHouse username
	User string `yaml:"user" example:"default"`
	// ClickHouse password
	Pass string `yaml:"pass"`
}

type VM struct {
	// SSH host of the managed VM, empty disables the VM command channel
	Host string `yaml:"host" example:"10.0.0.4"`
	// SSH username
	User string `yaml:"user" example:"azureuser"`
	// SSH port
	Port int `yaml:"port" example:"22"`
}

type Prompt struct {
	// Override for the grounding system prompt, must keep {query} and {sources}
	System string `yaml:"system"`
}

type HTTP struct {
	// Listen port for the chat API
	Port int `yaml:"port" example:"8080"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.HTTP.Port == 0 {
		result.HTTP.Port = 8080
	}
	if result.DB.User == "" {
		result.DB.User = "postgres"
	}
	if result.DB.Pass == "" {
		result.DB.Pass = "postgres"
	}
	if result.DB.Host == "" {
		result.DB.Host = "localhost:5432"
	}
	if result.DB.Database == "" {
		result.DB.Database = "arclog"
	}
	if result.ClickHouse.Addr == "" {
		result.ClickHouse.Addr = "localhost:9000"
	}
	if result.ClickHouse.Database == "" {
		result.ClickHouse.Database = "logs"
	}
	if result.ClickHouse.User == "" {
		result.ClickHouse.User = "default"
	}
	if result.VM.Port == 0 {
		result.VM.Port = 22
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
