package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".reqpin"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for reqpin settings.
const envPrefix = "REQPIN"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// dotenvFile is loaded from the working directory before the environment is read.
const dotenvFile = ".env"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	err := loadDotenv(dotenvFile)
	if err != nil {
		return nil, err
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, homeErr := os.UserHomeDir()
		if homeErr == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	if used := viperCfg.ConfigFileUsed(); used != "" && readErr == nil {
		schemaErr := ValidateFile(used)
		if schemaErr != nil {
			return nil, schemaErr
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// loadDotenv exports the variables of a .env file without overriding the
// ones already set. A missing file is ignored.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("scan.extensions", DefaultScanExtensions())
	viperCfg.SetDefault("scan.excluded_files", []string{})
	viperCfg.SetDefault("scan.excluded_extensions", DefaultScanExcludedExtensions())
	viperCfg.SetDefault("scan.excluded_directories", []string{})
	viperCfg.SetDefault("scan.skip_vendor", DefaultScanSkipVendor)
	viperCfg.SetDefault("scan.detect_shebang", DefaultScanDetectShebang)
	viperCfg.SetDefault("scan.respect_gitignore", DefaultScanRespectGitignore)
	viperCfg.SetDefault("scan.skip_unparsable", DefaultScanSkipUnparsable)
	viperCfg.SetDefault("scan.max_file_size", DefaultScanMaxFileSize)

	viperCfg.SetDefault("env.managers", DefaultManagers())
	viperCfg.SetDefault("env.timeout", DefaultEnvTimeout)

	viperCfg.SetDefault("match.strategy", DefaultMatchStrategy)
	viperCfg.SetDefault("match.suggestions", DefaultMatchSuggestions)

	viperCfg.SetDefault("output.names_file", DefaultOutputNamesFile)
	viperCfg.SetDefault("output.listing_dir", DefaultOutputListingDir)
	viperCfg.SetDefault("output.manifest", DefaultOutputManifest)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_textfile", DefaultTelemetryMetricsTextfile)
}
