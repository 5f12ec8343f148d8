package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	DataDir         string
	UploadDir       string
	BaseDomain      string
	DefaultVideoURL string
	TargetCountry   string
	OriginCountry   string
	SecureCookies   bool
}

// Load loads configuration from multiple sources with priority:
// 1. Command flags (applied by callers via LoadWithOverrides)
// 2. Config file (./vitrina.toml or $XDG_CONFIG_HOME/vitrina/vitrina.toml)
// 3. Environment variables
func Load() (*Config, error) {
	v := newBaseViper()
	_ = v.ReadInConfig()
	return buildConfig(v, "", ""), nil
}

// LoadWithOverrides loads config and applies flag overrides.
func LoadWithOverrides(databaseURL, port string) (*Config, error) {
	v := newBaseViper()
	_ = v.ReadInConfig()
	return buildConfig(v, databaseURL, port), nil
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("vitrina")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	// XDG Base Directory lookup, implemented by hand so tests can repoint it.
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		v.AddConfigPath(filepath.Join(configHome, "vitrina"))
	}

	return v
}

func buildConfig(v *viper.Viper, overrideDatabaseURL, overridePort string) *Config {
	cfg := &Config{
		Port:          "3000",
		DataDir:       "./data",
		UploadDir:     "./uploads",
		TargetCountry: "RU",
		OriginCountry: "UA",
		SecureCookies: true,
	}

	if v.IsSet("database_url") {
		cfg.DatabaseURL = v.GetString("database_url")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetString("port")
	}
	if v.IsSet("data_dir") {
		cfg.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("upload_dir") {
		cfg.UploadDir = v.GetString("upload_dir")
	}
	if v.IsSet("base_domain") {
		cfg.BaseDomain = v.GetString("base_domain")
	}
	if v.IsSet("default_video_url") {
		cfg.DefaultVideoURL = v.GetString("default_video_url")
	}
	if v.IsSet("target_country") {
		cfg.TargetCountry = v.GetString("target_country")
	}
	if v.IsSet("origin_country") {
		cfg.OriginCountry = v.GetString("origin_country")
	}
	if v.IsSet("secure_cookies") {
		cfg.SecureCookies = v.GetBool("secure_cookies")
	}

	// Environment fallback for anything not configured in the file.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if !v.IsSet("port") {
		if envPort := os.Getenv("PORT"); envPort != "" {
			cfg.Port = envPort
		}
	}
	if !v.IsSet("data_dir") {
		if envDataDir := os.Getenv("DATA_DIR"); envDataDir != "" {
			cfg.DataDir = envDataDir
		}
	}
	if !v.IsSet("upload_dir") {
		if envUploadDir := os.Getenv("UPLOAD_DIR"); envUploadDir != "" {
			cfg.UploadDir = envUploadDir
		}
	}
	if !v.IsSet("base_domain") {
		cfg.BaseDomain = os.Getenv("BASE_DOMAIN")
	}
	if !v.IsSet("default_video_url") {
		if envVideo := os.Getenv("DEFAULT_VIDEO_URL"); envVideo != "" {
			cfg.DefaultVideoURL = envVideo
		}
	}
	if !v.IsSet("target_country") {
		if envTarget := os.Getenv("TARGET_COUNTRY"); envTarget != "" {
			cfg.TargetCountry = envTarget
		}
	}
	if !v.IsSet("origin_country") {
		if envOrigin := os.Getenv("ORIGIN_COUNTRY"); envOrigin != "" {
			cfg.OriginCountry = envOrigin
		}
	}
	if !v.IsSet("secure_cookies") {
		if envSecure := os.Getenv("SECURE_COOKIES"); envSecure != "" {
			cfg.SecureCookies = envSecure == "true"
		}
	}

	// Flag overrides win.
	if overrideDatabaseURL != "" {
		cfg.DatabaseURL = overrideDatabaseURL
	}
	if overridePort != "" {
		cfg.Port = overridePort
	}

	return cfg
}
