package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	SnapshotBackendFile  = "file"
	SnapshotBackendRedis = "redis"

	DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	envPrefix = "VT_"
)

type FetcherConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type BuilderConfig struct {
	ManifestURL    string `yaml:"manifest_url"`
	Workers        int    `yaml:"workers"`
	FailFast       bool   `yaml:"fail_fast"`
	SupplementFile string `yaml:"supplement_file"`
}

type RendererConfig struct {
	ReadmeFileName  string `yaml:"readme_filename"`
	PageFileName    string `yaml:"page_filename"`
	ReadmeTemplate  string `yaml:"readme_template"`
	PageDescription string `yaml:"page_description"`
	DisablePage     bool   `yaml:"disable_page"`
}

type SnapshotConfig struct {
	Backend  string `yaml:"backend"`
	FileName string `yaml:"filename"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

type Config struct {
	LogLevel  string         `yaml:"log_level"`
	OutputDir string         `yaml:"output_dir"`
	LockFile  string         `yaml:"lock_file"`
	Fetcher   FetcherConfig  `yaml:"fetcher"`
	Builder   BuilderConfig  `yaml:"builder"`
	Renderer  RendererConfig `yaml:"renderer"`
	Snapshot  SnapshotConfig `yaml:"snapshot"`
}

func (c *Config) SetDefaults() {
	c.LogLevel = LogLevelInfo
	c.OutputDir = "."
	c.LockFile = ".versiontracker.lock"

	c.Fetcher.Timeout = 10 * time.Second
	c.Fetcher.UserAgent = "versiontracker/1.0"
	c.Fetcher.MaxBodyBytes = 16 << 20

	c.Builder.ManifestURL = DefaultManifestURL
	c.Builder.Workers = 8

	c.Renderer.ReadmeFileName = "README.md"
	c.Renderer.PageFileName = "index.html"

	c.Snapshot.Backend = SnapshotBackendFile
	c.Snapshot.FileName = "dedupe"
	c.Snapshot.RedisKey = "versiontracker:fingerprint"
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	switch c.Snapshot.Backend {
	case SnapshotBackendFile:
		if c.Snapshot.FileName == "" {
			return fmt.Errorf("snapshot filename must be set")
		}
	case SnapshotBackendRedis:
		if c.Snapshot.RedisURL == "" || c.Snapshot.RedisKey == "" {
			return fmt.Errorf("snapshot redis_url and redis_key must be set")
		}
	default:
		return fmt.Errorf("unknown snapshot backend: %s", c.Snapshot.Backend)
	}

	if c.Builder.ManifestURL == "" {
		return fmt.Errorf("manifest url must be set")
	}

	if c.Builder.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Builder.Workers)
	}

	if c.Renderer.ReadmeFileName == "" {
		return fmt.Errorf("readme filename must be set")
	}

	return nil
}

// Load reads the config file from fs. A missing file yields the defaults.
// Environment variables (and a .env file, if any) override file values.
func Load(fsys afero.Fs, path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(afero.NewOsFs(), path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":        &c.LogLevel,
		"OUTPUT_DIR":       &c.OutputDir,
		"MANIFEST_URL":     &c.Builder.ManifestURL,
		"SUPPLEMENT_FILE":  &c.Builder.SupplementFile,
		"SNAPSHOT_BACKEND": &c.Snapshot.Backend,
		"REDIS_URL":        &c.Snapshot.RedisURL,
		"REDIS_KEY":        &c.Snapshot.RedisKey,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := lookup(envPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("cannot parse %sWORKERS: %w", envPrefix, err)
		}
		c.Builder.Workers = n
	}

	if v, ok := lookup(envPrefix + "FAIL_FAST"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("cannot parse %sFAIL_FAST: %w", envPrefix, err)
		}
		c.Builder.FailFast = b
	}

	if v, ok := lookup(envPrefix + "FETCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("cannot parse %sFETCH_TIMEOUT: %w", envPrefix, err)
		}
		c.Fetcher.Timeout = d
	}

	return nil
}
