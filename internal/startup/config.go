package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"volume-index/internal/logging"
)

// Config holds all application configuration
type Config struct {
	SnapshotPath    string  `yaml:"snapshot_path" env:"SNAPSHOT_PATH" env-default:"./disk_cache.json" env-description:"Path of the JSON index snapshot"`
	Port            string  `yaml:"port" env:"PORT" env-default:"8080" env-description:"HTTP API port"`
	MetricsPort     string  `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9090" env-description:"Prometheus metrics port"`
	MetricsEnabled  bool    `yaml:"metrics_enabled" env:"METRICS_ENABLED" env-default:"true" env-description:"Serve /metrics on METRICS_PORT"`
	IndexWorkers    int     `yaml:"index_workers" env:"INDEX_WORKERS" env-default:"0" env-description:"Directory walk workers (0 = auto)"`
	IndexSkipHidden bool    `yaml:"index_skip_hidden" env:"INDEX_SKIP_HIDDEN" env-default:"false" env-description:"Leave dot-files and dot-directories out of the index"`
	IndexOnStart    bool    `yaml:"index_on_start" env:"INDEX_ON_START" env-default:"false" env-description:"Load or build the index at startup instead of on the first disks request"`
	LogLevel        string  `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogHealthChecks bool    `yaml:"log_health_checks" env:"LOG_HEALTH_CHECKS" env-default:"true" env-description:"Write access log lines for health probes"`
	MemoryLimit     int64   `yaml:"memory_limit" env:"MEMORY_LIMIT" env-default:"0" env-description:"Container memory limit in bytes, used to set GOMEMLIMIT"`
	MemoryRatio     float64 `yaml:"memory_ratio" env:"MEMORY_RATIO" env-default:"0.9" env-description:"Share of MEMORY_LIMIT given to the Go heap"`

	// ConfigFile is the optional YAML file the values were read from.
	ConfigFile string `yaml:"-" env:"CONFIG_PATH" env-description:"Optional YAML config file; environment variables override it"`
}

// ReadConfig reads the configuration from CONFIG_PATH (if set) and the
// environment, without logging or touching the filesystem beyond the read.
func ReadConfig() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Usage returns a description of every supported environment variable.
func Usage() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// LoadConfig reads the configuration, applies LOG_LEVEL and checks that the
// snapshot can be written. Every step is logged.
func LoadConfig() (*Config, error) {
	logBanner()
	logHost()

	section("Configuration")
	cfg, err := ReadConfig()
	if err != nil {
		return nil, err
	}

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		logging.Warn("  LOG_LEVEL %q is not a level, falling back to info", cfg.LogLevel)
		level = logging.LevelInfo
	}
	logging.SetLevel(level)

	if cfg.IndexWorkers < 0 {
		logging.Warn("  INDEX_WORKERS=%d is negative, using auto", cfg.IndexWorkers)
		cfg.IndexWorkers = 0
	}

	if cfg.ConfigFile != "" {
		field("CONFIG_PATH", "%s", cfg.ConfigFile)
	}
	field("SNAPSHOT_PATH", "%s", cfg.SnapshotPath)
	field("PORT", "%s", cfg.Port)
	field("METRICS", "%s on :%s", enabledString(cfg.MetricsEnabled), cfg.MetricsPort)
	field("INDEX_WORKERS", "%s", workersString(cfg.IndexWorkers))
	field("INDEX_SKIP_HIDDEN", "%t", cfg.IndexSkipHidden)
	field("INDEX_ON_START", "%t", cfg.IndexOnStart)
	field("LOG_LEVEL", "%s", logging.GetLevel())
	field("LOG_HEALTH_CHECKS", "%t", cfg.LogHealthChecks)

	section("Snapshot")
	if cfg.SnapshotPath, err = filepath.Abs(cfg.SnapshotPath); err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot path: %w", err)
	}
	field("Path", "%s", cfg.SnapshotPath)

	if err := checkSnapshotDir(filepath.Dir(cfg.SnapshotPath)); err != nil {
		return nil, fmt.Errorf("snapshot directory error: %w", err)
	}

	if info, err := os.Stat(cfg.SnapshotPath); err == nil {
		field("Existing", "%d bytes, written %s", info.Size(), info.ModTime().Format(time.RFC3339))
	} else {
		field("Existing", "none, volumes are walked on first use")
	}

	return cfg, nil
}

// checkSnapshotDir verifies dir exists and accepts new files, since the
// snapshot is replaced by renaming a temp file inside it.
func checkSnapshotDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".snapshot-probe-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		logging.Warn("  Could not remove %s: %v", probe.Name(), err)
	}

	logging.Debug("  %s is writable", dir)
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func workersString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}
