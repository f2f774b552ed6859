// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GROQ_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in a few locations so tests in nested packages
// pick it up too.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills secrets straight from the environment when the
// file left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Providers.Chat.APIKey == "" {
		if val := os.Getenv("GROQ_API_KEY"); val != "" {
			cfg.Providers.Chat.APIKey = val
		}
	}
	if cfg.Providers.Chat.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Providers.Chat.APIKey = val
		}
	}
	if cfg.Providers.Deepgram.APIKey == "" {
		if val := os.Getenv("DEEPGRAM_API_KEY"); val != "" {
			cfg.Providers.Deepgram.APIKey = val
		}
	}
	if cfg.Providers.TTS.ElevenLabsAPIKey == "" {
		if val := os.Getenv("ELEVENLABS_API_KEY"); val != "" {
			cfg.Providers.TTS.ElevenLabsAPIKey = val
		}
	}
	if cfg.Providers.TTS.OpenAIAPIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Providers.TTS.OpenAIAPIKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Directory.Source == "" {
		cfg.Directory.Source = "csv"
	}
	if cfg.Directory.CSV.NameColumn == "" {
		cfg.Directory.CSV.NameColumn = "name"
	}
	if cfg.Directory.CSV.CityColumn == "" {
		cfg.Directory.CSV.CityColumn = "city"
	}
	if cfg.Directory.CSV.AddressColumn == "" {
		cfg.Directory.CSV.AddressColumn = "address"
	}
	if cfg.Directory.Table == "" {
		cfg.Directory.Table = "hospitals"
	}

	// Session defaults match the production bounds: 30 minute idle window,
	// 1000 concurrent users, 10 turns per user.
	if cfg.Sessions.Backend == "" {
		cfg.Sessions.Backend = "memory"
	}
	if cfg.Sessions.IdleTimeout == 0 {
		cfg.Sessions.IdleTimeout = 1800
	}
	if cfg.Sessions.MaxUsers == 0 {
		cfg.Sessions.MaxUsers = 1000
	}
	if cfg.Sessions.MaxTurns == 0 {
		cfg.Sessions.MaxTurns = 10
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = 60
	}

	if cfg.Escalation.Transport == "" {
		cfg.Escalation.Transport = "disabled"
	}
	if cfg.Escalation.AWSRegion == "" {
		cfg.Escalation.AWSRegion = "ap-south-1"
	}
	if cfg.Escalation.NotifyTimeout == 0 {
		cfg.Escalation.NotifyTimeout = 10000
	}

	if cfg.Providers.Chat.BaseURL == "" {
		cfg.Providers.Chat.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Providers.Chat.Model == "" {
		cfg.Providers.Chat.Model = "llama-3.1-70b-versatile"
	}
	if cfg.Providers.Chat.Temperature == 0 {
		cfg.Providers.Chat.Temperature = 0.1
	}
	if cfg.Providers.Chat.MaxTokens == 0 {
		cfg.Providers.Chat.MaxTokens = 150
	}
	if cfg.Providers.Chat.Timeout == 0 {
		cfg.Providers.Chat.Timeout = 30000
	}
	if cfg.Providers.Deepgram.Model == "" {
		cfg.Providers.Deepgram.Model = "nova-2"
	}
	if cfg.Providers.Deepgram.Timeout == 0 {
		cfg.Providers.Deepgram.Timeout = 15000
	}
	if cfg.Providers.TTS.Provider == "" {
		cfg.Providers.TTS.Provider = "openai"
	}
	if cfg.Providers.TTS.OpenAIVoice == "" {
		cfg.Providers.TTS.OpenAIVoice = "alloy"
	}
	if cfg.Providers.TTS.Timeout == 0 {
		cfg.Providers.TTS.Timeout = 20000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	switch cfg.Directory.Source {
	case "csv":
		if cfg.Directory.CSV.FilePath == "" {
			return fmt.Errorf("directory.csv.file_path is required when directory.source is csv")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when directory.source is postgres")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when directory.source is postgres")
		}
	default:
		return fmt.Errorf("directory.source must be csv or postgres, got %q", cfg.Directory.Source)
	}

	switch cfg.Sessions.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when sessions.backend is redis")
		}
	default:
		return fmt.Errorf("sessions.backend must be memory or redis, got %q", cfg.Sessions.Backend)
	}

	switch cfg.Escalation.Transport {
	case "disabled":
	case "sns":
		if cfg.Escalation.HumanAgentNumber == "" {
			return fmt.Errorf("escalation.human_agent_number is required when escalation.transport is sns")
		}
	case "ses":
		if cfg.Escalation.FromAddress == "" || cfg.Escalation.ToAddress == "" {
			return fmt.Errorf("escalation.from_address and escalation.to_address are required when escalation.transport is ses")
		}
	default:
		return fmt.Errorf("escalation.transport must be sns, ses or disabled, got %q", cfg.Escalation.Transport)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts seconds from config to time.Duration.
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
