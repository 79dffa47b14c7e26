// Package cfg loads process configuration from an optional YAML file
// (CONFIG_FILE) with environment-variable overrides for every field.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"confscore/internal/classifier"
)

type Settings struct {
	ModelDir   string
	DataPath   string
	LogLevel   string
	Classifier classifier.Config
}

type ConfigFile struct {
	Model struct {
		Dir string `yaml:"dir"`
	} `yaml:"model"`

	Store struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"store"`

	Classifier classifier.Config `yaml:"classifier"`

	System struct {
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	defaults := classifier.DefaultConfig()
	settings := Settings{
		ModelDir: getEnvOrDefault("MODEL_DIR", orDefault(config.Model.Dir, defaultModelDir())),
		DataPath: getEnvOrDefault("DATA_PATH", config.Store.DataPath),
		LogLevel: getEnvOrDefault("LOG_LEVEL", orDefault(config.System.LogLevel, "info")),
		Classifier: classifier.Config{
			Trees:    getIntFromEnvOrConfig("FOREST_TREES", config.Classifier.Trees, defaults.Trees),
			MaxDepth: getIntFromEnvOrConfig("FOREST_MAX_DEPTH", config.Classifier.MaxDepth, defaults.MaxDepth),
			MinLeaf:  getIntFromEnvOrConfig("FOREST_MIN_LEAF", config.Classifier.MinLeaf, defaults.MinLeaf),
			Seed:     getInt64FromEnvOrConfig("FOREST_SEED", config.Classifier.Seed, defaults.Seed),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	defaults := classifier.DefaultConfig()
	settings := Settings{
		ModelDir: getEnvOrDefault("MODEL_DIR", defaultModelDir()),
		DataPath: os.Getenv("DATA_PATH"), // optional, enables the outcome store
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		Classifier: classifier.Config{
			Trees:    getIntOrDefault("FOREST_TREES", defaults.Trees),
			MaxDepth: getIntOrDefault("FOREST_MAX_DEPTH", defaults.MaxDepth),
			MinLeaf:  getIntOrDefault("FOREST_MIN_LEAF", defaults.MinLeaf),
			Seed:     getInt64OrDefault("FOREST_SEED", defaults.Seed),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// defaultModelDir places artifacts next to the installed binary, falling
// back to a relative directory when the executable path is unavailable.
func defaultModelDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "model"
	}
	return filepath.Join(filepath.Dir(exe), "model")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func validateSettings(settings *Settings) error {
	if settings.ModelDir == "" {
		return fmt.Errorf("model directory cannot be empty")
	}

	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of trace/debug/info/warn/error, got %q", settings.LogLevel)
	}

	c := settings.Classifier
	if c.Trees <= 0 || c.Trees > 2000 {
		return fmt.Errorf("forest trees must be between 1 and 2000, got %d", c.Trees)
	}
	if c.MaxDepth <= 0 || c.MaxDepth > 64 {
		return fmt.Errorf("forest max depth must be between 1 and 64, got %d", c.MaxDepth)
	}
	if c.MinLeaf <= 0 || c.MinLeaf > 1000 {
		return fmt.Errorf("forest min leaf must be between 1 and 1000, got %d", c.MinLeaf)
	}
	return nil
}
