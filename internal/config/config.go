// Package config loads, validates and writes the tgjournal configuration.
// Values come from defaults, an optional YAML file and TGJOURNAL_*
// environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading and validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig configures the Bot API connection.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// AllowedUserIDs restricts who may write to the journal. Empty allows anyone.
	AllowedUserIDs []int64 `mapstructure:"allowed_user_ids" validate:"dive,gt=0"`
	Workers        int     `mapstructure:"workers"          validate:"min=1,max=64"`
	APIURL         string  `mapstructure:"api_url"          validate:"required,url"`

	// BotInfo is filled at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// JournalConfig configures where and how messages are filed.
type JournalConfig struct {
	SaveDirectory string `mapstructure:"save_directory" validate:"required"`
	// Timezone is an IANA name. Empty means the host's local time.
	Timezone         string        `mapstructure:"timezone"`
	DownloadTimeout  time.Duration `mapstructure:"download_timeout"   validate:"min=1s,max=10m"`
	MaxDownloadBytes int64         `mapstructure:"max_download_bytes" validate:"min=0"`
}

// DatabaseConfig configures the message ledger.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
	// RetentionDays is how long ledger rows are kept. Zero keeps them forever.
	RetentionDays int `mapstructure:"retention_days" validate:"min=0"`
}

// GeminiConfig configures the daily digest summarizer. An empty APIKey
// disables it.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"              validate:"required"`
	Temperature       float32       `mapstructure:"temperature"        validate:"min=0,max=2"`
	SystemInstruction string        `mapstructure:"system_instruction" validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout"            validate:"min=1s,max=10m"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig schedules one task with a six-field cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds user-facing replies.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"      validate:"required"`
	Help         string `mapstructure:"help"         validate:"required"`
	Unauthorized string `mapstructure:"unauthorized" validate:"required"`
	// Stats is a format string taking the day, saved messages, saved
	// attachments and failed attachments.
	Stats string `mapstructure:"stats" validate:"required"`
}

// LoadConfig reads the configuration file at path (missing is fine),
// overlays environment variables and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	cfg.Journal.SaveDirectory = ExpandHome(cfg.Journal.SaveDirectory)
	cfg.Database.Path = ExpandHome(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the values tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if !filepath.IsAbs(c.Journal.SaveDirectory) {
		return fmt.Errorf("%w: journal.save_directory must be an absolute path, got %q", ErrConfiguration, c.Journal.SaveDirectory)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: invalid journal.timezone %q: %v", ErrConfiguration, c.Journal.Timezone, err)
	}
	// messages.stats takes a string and three integers, in that order.
	if sample := fmt.Sprintf(c.Messages.Stats, "2024-01-15", 1, 2, 3); strings.Contains(sample, "%!") {
		return fmt.Errorf("%w: messages.stats must use one %%s then three %%d placeholders, got %q", ErrConfiguration, c.Messages.Stats)
	}
	return nil
}

// Location returns the time zone messages are filed in.
func (c *Config) Location() (*time.Location, error) {
	if c.Journal.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Journal.Timezone)
}

// IsUserAllowed reports whether userID may write to the journal.
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.Telegram.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range c.Telegram.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Save writes cfg to path as YAML, creating the parent directory. Messages
// and the Gemini instruction are left out so they keep tracking defaults.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}

	v := viper.New()
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.json", cfg.Log.JSON)
	v.Set("telegram.token", cfg.Telegram.Token)
	v.Set("telegram.allowed_user_ids", cfg.Telegram.AllowedUserIDs)
	v.Set("telegram.workers", cfg.Telegram.Workers)
	v.Set("telegram.api_url", cfg.Telegram.APIURL)
	v.Set("journal.save_directory", cfg.Journal.SaveDirectory)
	v.Set("journal.timezone", cfg.Journal.Timezone)
	v.Set("journal.download_timeout", cfg.Journal.DownloadTimeout.String())
	v.Set("journal.max_download_bytes", cfg.Journal.MaxDownloadBytes)
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.retention_days", cfg.Database.RetentionDays)
	v.Set("gemini.api_key", cfg.Gemini.APIKey)
	v.Set("gemini.model", cfg.Gemini.Model)
	v.Set("gemini.temperature", cfg.Gemini.Temperature)
	v.Set("gemini.timeout", cfg.Gemini.Timeout.String())
	for name, task := range cfg.Scheduler.Tasks {
		v.Set("scheduler.tasks."+name+".enabled", task.Enabled)
		v.Set("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict permissions on %s: %w", path, err)
	}
	return nil
}

// Defaults returns the configuration built from defaults and environment
// variables alone.
func Defaults() *Config {
	cfg := &Config{}
	// Decoding defaults into a fresh struct cannot fail.
	_ = newViper().Unmarshal(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
