package commands

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/xraph/settle"
	"github.com/xraph/settle/types"
)

// Supported --store values.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreS3     = "s3"
	StoreNop    = "nop"
)

// Config is the CLI configuration file.
type Config struct {
	Store       string      `yaml:"store"`
	Dir         string      `yaml:"dir"`
	SnapshotKey string      `yaml:"snapshot_key"`
	Locale      string      `yaml:"locale"`
	Palette     []string    `yaml:"palette"`
	Redis       RedisConfig `yaml:"redis"`
	S3          S3Config    `yaml:"s3"`
	Logging     LogConfig   `yaml:"logging"`
}

// RedisConfig configures the redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config configures the S3 store.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Store:       StoreFile,
		Dir:         ".settle",
		SnapshotKey: settle.DefaultSnapshotKey,
		Locale:      types.LocaleES.Name,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		S3: S3Config{
			Region: "us-east-1",
			Prefix: "settle/",
		},
		Logging: LogConfig{
			Level: "warn",
		},
	}
}

// LoadConfig reads path into a Config. A missing file yields the defaults.
// Environment variables override both.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SETTLE_STORE"); v != "" {
		c.Store = v
	}
	if v := os.Getenv("SETTLE_DIR"); v != "" {
		c.Dir = v
	}
	if v := os.Getenv("SETTLE_SNAPSHOT_KEY"); v != "" {
		c.SnapshotKey = v
	}
	if v := os.Getenv("SETTLE_LOCALE"); v != "" {
		c.Locale = v
	}
	if v := os.Getenv("SETTLE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("SETTLE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("SETTLE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("SETTLE_S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv("SETTLE_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("SETTLE_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("SETTLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.Dir == "" {
			return fmt.Errorf("%w: file store needs a directory", settle.ErrInvalidStoreDriver)
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: s3 store needs a bucket", settle.ErrInvalidStoreDriver)
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis store needs an address", settle.ErrInvalidStoreDriver)
		}
	case StoreMemory, StoreNop:
	default:
		return fmt.Errorf("%w: %q", settle.ErrInvalidStoreDriver, c.Store)
	}

	if _, ok := types.LookupLocale(c.Locale); !ok {
		return fmt.Errorf("unknown locale %q", c.Locale)
	}
	return nil
}
