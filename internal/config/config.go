package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for both binaries. The landing service only
// reads the HTTP and database fields; the notification service reads all of it.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	DBURL    string `mapstructure:"DB_URL"`

	// GithubToken is optional. When empty the GitHub client connects
	// anonymously, which carries much lower rate limits.
	GithubToken string `mapstructure:"GITHUB_TOKEN"`

	PollInterval      time.Duration `mapstructure:"POLL_INTERVAL"`
	PollActivityLimit int           `mapstructure:"POLL_ACTIVITY_LIMIT"`
}

// LoadConfig reads configuration from an optional .env file and the
// environment.
func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("POLL_INTERVAL", "30m")
	viper.SetDefault("POLL_ACTIVITY_LIMIT", 10)

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("POLL_INTERVAL must be a positive duration")
	}
	if cfg.PollActivityLimit < 1 || cfg.PollActivityLimit > 100 {
		return nil, errors.New("POLL_ACTIVITY_LIMIT must be between 1 and 100")
	}

	return &cfg, nil
}
