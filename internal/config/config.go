package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	JanitorSpec    string        `mapstructure:"janitor_spec"`
	JanitorDefer   time.Duration `mapstructure:"janitor_defer"`
	AssetTTL       time.Duration `mapstructure:"asset_ttl"`
	AssetTTLEmpty  time.Duration `mapstructure:"asset_ttl_empty"`
	Secret         string        `mapstructure:"secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("max_upload_bytes", int64(2)<<30)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("janitor_spec", "@every 10m")
	v.SetDefault("janitor_defer", "2s")
	v.SetDefault("asset_ttl", "1h")
	v.SetDefault("asset_ttl_empty", "10m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Uploads: %s\n", cfg.Mode, cfg.Port, cfg.UploadDir)
	return &cfg, nil
}
