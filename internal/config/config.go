// Package config loads engine configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Archive ArchiveConfig `yaml:"archive"`
	Judging JudgingConfig `yaml:"judging"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type ArchiveConfig struct {
	Driver string   `yaml:"driver" validate:"oneof=fs s3 memory"`
	Root   string   `yaml:"root"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type JudgingConfig struct {
	MinJudges              int  `yaml:"min_judges" validate:"min=1"`
	RequireCompleteScoring bool `yaml:"require_complete_scoring"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: "sqlite", SQLitePath: "recitecore.db"},
		Archive: ArchiveConfig{Driver: "fs", Root: "archives", FSRoot: "./blobdata"},
		Judging: JudgingConfig{MinJudges: 3},
	}
}

// Load reads path when it exists, layers environment overrides on top and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("RECITECORE_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("RECITECORE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	envString("RECITECORE_POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	envString("RECITECORE_BLOB_DRIVER", &cfg.Archive.Driver)
	envString("RECITECORE_BLOB_FS_ROOT", &cfg.Archive.FSRoot)
	envString("RECITECORE_ARCHIVE_ROOT", &cfg.Archive.Root)
	envString("RECITECORE_BLOB_S3_BUCKET", &cfg.Archive.S3.Bucket)
	envString("RECITECORE_BLOB_S3_REGION", &cfg.Archive.S3.Region)
	envString("RECITECORE_BLOB_S3_ENDPOINT", &cfg.Archive.S3.Endpoint)
	envBool("RECITECORE_BLOB_S3_PATH_STYLE", &cfg.Archive.S3.PathStyle)
	envInt("RECITECORE_MIN_JUDGES", &cfg.Judging.MinJudges)
	envBool("RECITECORE_REQUIRE_COMPLETE_SCORING", &cfg.Judging.RequireCompleteScoring)
}

func envString(name string, target *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*target = v
	}
}

func envInt(name string, target *int) {
	if v, ok := os.LookupEnv(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envBool(name string, target *bool) {
	if v, ok := os.LookupEnv(name); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}
