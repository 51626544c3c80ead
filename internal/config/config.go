// Package config loads settings from an optional .env file and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings
type Config struct {
	MOTEndpoint         string `mapstructure:"mot_endpoint"`
	MOTAPIKey           string `mapstructure:"mot_api_key"`
	MOTAuthorizationKey string `mapstructure:"mot_authorization_key"`

	VESEndpoint string `mapstructure:"ves_endpoint"`
	VESAPIKey   string `mapstructure:"ves_api_key"`

	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	DatabaseURL string `mapstructure:"database_url"`
	Port        string `mapstructure:"port"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	S3 S3Config `mapstructure:",squash"`
}

// S3Config configures the optional report archive
type S3Config struct {
	Endpoint        string `mapstructure:"s3_endpoint"`
	AccessKeyID     string `mapstructure:"s3_access_key_id"`
	SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	Bucket          string `mapstructure:"s3_bucket"`
	UseSSL          bool   `mapstructure:"s3_use_ssl"`
}

// Enabled reports whether an archive endpoint is configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

var defaults = map[string]any{
	"mot_endpoint":          "https://history.mot.api.gov.uk/v1/trade/vehicles/registration/",
	"mot_api_key":           "",
	"mot_authorization_key": "",
	"ves_endpoint":          "https://driver-vehicle-licensing.api.gov.uk/vehicle-enquiry/v1/vehicles",
	"ves_api_key":           "",
	"http_timeout":          "30s",
	"database_url":          "",
	"port":                  "8080",
	"log_level":             "info",
	"log_format":            "console",
	"s3_endpoint":           "",
	"s3_access_key_id":      "",
	"s3_secret_access_key":  "",
	"s3_bucket":             "motreport",
	"s3_use_ssl":            true,
}

// Load reads envFile (if it exists) and then the environment, which wins.
// An empty envFile skips the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate reports missing provider credentials
func (c *Config) Validate() error {
	var errs []error
	if c.MOTAPIKey == "" {
		errs = append(errs, errors.New("MOT_API_KEY is required"))
	}
	if c.MOTAuthorizationKey == "" {
		errs = append(errs, errors.New("MOT_AUTHORIZATION_KEY is required"))
	}
	if c.VESAPIKey == "" {
		errs = append(errs, errors.New("VES_API_KEY is required"))
	}
	if c.S3.Enabled() && (c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}
