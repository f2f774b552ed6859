// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Directory  DirectoryConfig  `mapstructure:"directory"`
	Sessions   SessionConfig    `mapstructure:"sessions"`
	Escalation EscalationConfig `mapstructure:"escalation"`
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DirectoryConfig selects and configures the hospital record source.
type DirectoryConfig struct {
	Source string    `mapstructure:"source"` // "csv" or "postgres"
	CSV    CSVConfig `mapstructure:"csv"`
	Table  string    `mapstructure:"table"` // postgres table, when source=postgres
}

// CSVConfig maps source columns onto the record fields. Column names are
// matched case-insensitively against the header row; every unmapped column
// lands in the record's Extra map.
type CSVConfig struct {
	FilePath      string `mapstructure:"file_path"`
	NameColumn    string `mapstructure:"name_column"`
	CityColumn    string `mapstructure:"city_column"`
	AddressColumn string `mapstructure:"address_column"`
}

// SessionConfig bounds the per-user conversation memory.
type SessionConfig struct {
	Backend       string `mapstructure:"backend"`        // "memory" (default) or "redis"
	IdleTimeout   int    `mapstructure:"idle_timeout"`   // seconds
	MaxUsers      int    `mapstructure:"max_users"`      // global live-session ceiling
	MaxTurns      int    `mapstructure:"max_turns"`      // per-session turn bound
	SweepInterval int    `mapstructure:"sweep_interval"` // seconds between idle sweeps
}

// EscalationConfig configures human-agent handoff.
type EscalationConfig struct {
	Transport        string `mapstructure:"transport"` // "sns", "ses" or "disabled"
	AWSRegion        string `mapstructure:"aws_region"`
	HumanAgentNumber string `mapstructure:"human_agent_number"` // E.164, for sns
	FromAddress      string `mapstructure:"from_address"`       // for ses
	ToAddress        string `mapstructure:"to_address"`         // for ses
	NotifyTimeout    int    `mapstructure:"notify_timeout"`     // milliseconds
}

// ProvidersConfig holds external speech and language-model provider settings.
type ProvidersConfig struct {
	Chat     ChatProviderConfig `mapstructure:"chat"`
	Deepgram DeepgramConfig     `mapstructure:"deepgram"`
	TTS      TTSProviderConfig  `mapstructure:"tts"`
}

type ChatProviderConfig struct {
	BaseURL     string  `mapstructure:"base_url"` // OpenAI-compatible endpoint
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
}

type DeepgramConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type TTSProviderConfig struct {
	Provider         string `mapstructure:"provider"` // "elevenlabs" or "openai"
	ElevenLabsAPIKey string `mapstructure:"elevenlabs_api_key"`
	ElevenLabsVoice  string `mapstructure:"elevenlabs_voice"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIVoice      string `mapstructure:"openai_voice"`
	Timeout          int    `mapstructure:"timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	MetricsAddress string `mapstructure:"metrics_address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
