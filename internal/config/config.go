// =============================================================================
// Sales Report Generator - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Values are resolved in
// this order, later sources winning:
//   1. Built-in defaults
//   2. The YAML configuration file (config.yaml unless --config is given)
//   3. SALESRPT_* environment variables, optionally seeded from a .env file
//   4. Command-line flags (applied by the cmd package)
//
// EXAMPLE config.yaml:
//   input_dir: "Input Files"
//   output_dir: "Output Files"
//   files:
//     team_map: TeamMap.csv
//     product_master: ProductMaster.csv
//     sales: Sales.csv
//     team_report: TeamReport.csv
//     product_report: ProductReport.csv
//   output_format: csv
//   on_unresolved: terminate
//   max_alternate_names: 9
//   write_summary: false
//   log_level: info
//   log_format: text
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sales-report/internal/aggregator"
	"github.com/ginjaninja78/sales-report/internal/reportwriter"
)

// =============================================================================
// DEFAULTS
// =============================================================================

// Default values, matching the folder and file names the tool has always used.
const (
	DefaultInputDir          = "Input Files"
	DefaultOutputDir         = "Output Files"
	DefaultTeamMapFile       = "TeamMap.csv"
	DefaultProductMasterFile = "ProductMaster.csv"
	DefaultSalesFile         = "Sales.csv"
	DefaultTeamReportFile    = "TeamReport.csv"
	DefaultProductReportFile = "ProductReport.csv"
	DefaultOutputFormat      = "csv"
	DefaultOnUnresolved      = "terminate"
	DefaultMaxAlternateNames = 9
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "SALESRPT_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory the three input tables are read from.
	// Default: "Input Files"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory reports are written to. Created if missing.
	// Default: "Output Files"
	OutputDir string `yaml:"output_dir"`

	// Files holds the default file name of each table.
	Files FileNames `yaml:"files"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat is "csv" or "xlsx".
	// Default: "csv"
	OutputFormat string `yaml:"output_format"`

	// MaxAlternateNames is how many "Name(n).ext" alternates are tried when an
	// output file is locked. 0 means the default; -1 disables alternates.
	// Default: 9
	MaxAlternateNames int `yaml:"max_alternate_names"`

	// WriteSummary writes a run summary text file next to the reports.
	// Default: false
	WriteSummary bool `yaml:"write_summary"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// OnUnresolved decides what happens when a sale references an unknown
	// product or team: "terminate" logs and exits, "error" returns an error.
	// Default: "terminate"
	OnUnresolved string `yaml:"on_unresolved"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// FileNames holds the file name of each input and output table.
type FileNames struct {
	TeamMap       string `yaml:"team_map"`
	ProductMaster string `yaml:"product_master"`
	Sales         string `yaml:"sales"`
	TeamReport    string `yaml:"team_report"`
	ProductReport string `yaml:"product_report"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigPath is the YAML file to read.
	ConfigPath string

	// Required makes a missing ConfigPath an error. When false a missing file
	// means "use defaults".
	Required bool

	// EnvFile is a dotenv file loaded into the environment if it exists.
	// Variables already set in the environment are not overwritten.
	EnvFile string
}

// Load builds the configuration from defaults, file and environment.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if a file cannot be read or parsed, or a value is invalid.
func Load(opts LoadOptions) (*MainConfig, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	var config MainConfig

	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigPath, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !opts.Required:
			// Defaults only.
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the built-in configuration.
func Default() *MainConfig {
	var config MainConfig
	applyDefaults(&config)
	return &config
}

// applyEnvOverrides copies SALESRPT_* variables over file values.
func applyEnvOverrides(config *MainConfig) error {
	stringVars := map[string]*string{
		"INPUT_DIR":           &config.InputDir,
		"OUTPUT_DIR":          &config.OutputDir,
		"TEAM_MAP_FILE":       &config.Files.TeamMap,
		"PRODUCT_MASTER_FILE": &config.Files.ProductMaster,
		"SALES_FILE":          &config.Files.Sales,
		"TEAM_REPORT_FILE":    &config.Files.TeamReport,
		"PRODUCT_REPORT_FILE": &config.Files.ProductReport,
		"OUTPUT_FORMAT":       &config.OutputFormat,
		"ON_UNRESOLVED":       &config.OnUnresolved,
		"LOG_LEVEL":           &config.LogLevel,
		"LOG_FORMAT":          &config.LogFormat,
	}
	for key, target := range stringVars {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "WRITE_SUMMARY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sWRITE_SUMMARY %q: %w", EnvPrefix, v, err)
		}
		config.WriteSummary = b
	}

	if v, ok := os.LookupEnv(EnvPrefix + "MAX_ALTERNATE_NAMES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_ALTERNATE_NAMES %q: %w", EnvPrefix, v, err)
		}
		config.MaxAlternateNames = n
	}

	return nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = DefaultInputDir
	}
	if config.OutputDir == "" {
		config.OutputDir = DefaultOutputDir
	}
	if config.Files.TeamMap == "" {
		config.Files.TeamMap = DefaultTeamMapFile
	}
	if config.Files.ProductMaster == "" {
		config.Files.ProductMaster = DefaultProductMasterFile
	}
	if config.Files.Sales == "" {
		config.Files.Sales = DefaultSalesFile
	}
	if config.Files.TeamReport == "" {
		config.Files.TeamReport = DefaultTeamReportFile
	}
	if config.Files.ProductReport == "" {
		config.Files.ProductReport = DefaultProductReportFile
	}
	if config.OutputFormat == "" {
		config.OutputFormat = DefaultOutputFormat
	}
	if config.OnUnresolved == "" {
		config.OnUnresolved = DefaultOnUnresolved
	}
	if config.MaxAlternateNames == 0 {
		config.MaxAlternateNames = DefaultMaxAlternateNames
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = DefaultLogFormat
	}
}

// Validate checks values that defaults cannot fix.
func (c *MainConfig) Validate() error {
	if _, err := reportwriter.ParseFormat(c.OutputFormat); err != nil {
		return err
	}
	if _, err := aggregator.ParseMode(c.OnUnresolved); err != nil {
		return err
	}
	if c.MaxAlternateNames < -1 {
		return fmt.Errorf("max_alternate_names must be -1 or greater, got %d", c.MaxAlternateNames)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// AlternateNames returns the number of alternates the file manager may try.
func (c *MainConfig) AlternateNames() int {
	if c.MaxAlternateNames < 0 {
		return 0
	}
	return c.MaxAlternateNames
}
