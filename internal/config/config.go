package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	TaskModeTemporal = "temporal"
	TaskModeInline   = "inline"
)

type Config struct {
	Port               string
	LogLevel           string
	OpenServAPIKey     string
	OpenServAPIURL     string
	OpenAIAPIKey       string
	LLMProvider        string
	OpenAIBaseURL      string
	OpenAIModel        string
	SummaryMaxTokens   int
	SummaryTemperature float64
	TemporalAddress    string
	TemporalTaskQueue  string
	TaskMode           string
	ActivityTimeout    time.Duration
	RedisURL           string
	ConversationTTL    time.Duration
	AuditTimeout       time.Duration
	AuditUserAgent     string
}

// ConfigurationError lists required settings that are missing. It is fatal at startup.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

var requiredKeys = []string{"OPENSERV_API_KEY", "OPENAI_API_KEY"}

// Load reads the environment, overlaid on an optional .env-format file named by
// CONFIG_FILE (default ".env"). A missing file is not an error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, &ConfigurationError{Missing: missing}
	}

	cfg := Config{
		Port:               v.GetString("PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		OpenServAPIKey:     v.GetString("OPENSERV_API_KEY"),
		OpenServAPIURL:     v.GetString("OPENSERV_API_URL"),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		LLMProvider:        v.GetString("LLM_PROVIDER"),
		OpenAIBaseURL:      v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:        v.GetString("OPENAI_MODEL"),
		SummaryMaxTokens:   v.GetInt("SUMMARY_MAX_TOKENS"),
		SummaryTemperature: v.GetFloat64("SUMMARY_TEMPERATURE"),
		TemporalAddress:    v.GetString("TEMPORAL_ADDRESS"),
		TemporalTaskQueue:  v.GetString("TEMPORAL_TASK_QUEUE"),
		TaskMode:           strings.ToLower(v.GetString("TASK_MODE")),
		ActivityTimeout:    v.GetDuration("ACTIVITY_TIMEOUT"),
		RedisURL:           v.GetString("REDIS_URL"),
		ConversationTTL:    v.GetDuration("CONVERSATION_TTL"),
		AuditTimeout:       v.GetDuration("AUDIT_TIMEOUT"),
		AuditUserAgent:     v.GetString("AUDIT_USER_AGENT"),
	}
	if cfg.TaskMode != TaskModeTemporal && cfg.TaskMode != TaskModeInline {
		return Config{}, fmt.Errorf("TASK_MODE must be %q or %q, got %q", TaskModeTemporal, TaskModeInline, cfg.TaskMode)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPENSERV_API_URL", "https://api.openserv.ai")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("SUMMARY_MAX_TOKENS", 2000)
	v.SetDefault("SUMMARY_TEMPERATURE", 0.7)
	v.SetDefault("TEMPORAL_ADDRESS", "localhost:7233")
	v.SetDefault("TEMPORAL_TASK_QUEUE", "EAA_COMPLIANCE_TASK_QUEUE")
	v.SetDefault("TASK_MODE", TaskModeTemporal)
	v.SetDefault("ACTIVITY_TIMEOUT", 5*time.Minute)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CONVERSATION_TTL", 24*time.Hour)
	v.SetDefault("AUDIT_TIMEOUT", 60*time.Second)
	v.SetDefault("AUDIT_USER_AGENT", "EAAComplianceAgent/1.0")
}
