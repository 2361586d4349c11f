package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the docsentry configuration
type Config struct {
	// Input settings
	Workers    int      `mapstructure:"workers" validate:"gte=0,lte=1024"` // number of documents processed in parallel
	MaxSize    string   `mapstructure:"max_size" validate:"required"`      // maximum document size accepted
	Extensions []string `mapstructure:"extensions"`                        // extensions picked up when walking directories
	Exclude    []string `mapstructure:"exclude"`                           // directories to exclude

	// Report settings
	ReportFormat string `mapstructure:"report_format" validate:"omitempty,oneof=json text markdown md console"` // json, text, markdown
	OutputFile   string `mapstructure:"output_file"`                                                          // report output path
	OutDir       string `mapstructure:"out_dir"`                                                              // directory for sanitized documents

	// Rule settings
	RulesPath string `mapstructure:"rules_path"` // optional YAML vocabulary override

	// Sanitizer settings
	Sanitizer SanitizerConfig `mapstructure:"sanitizer"`

	// Metrics settings
	MetricsFile string `mapstructure:"metrics_file"` // Prometheus textfile written after a run

	// AI settings
	AI AIConfig `mapstructure:"ai"` // learned-score plug-in configuration
}

// SanitizerConfig bounds the work a sanitizer may do on one document
type SanitizerConfig struct {
	ZipMaxEntries   int   `mapstructure:"zip_max_entries" validate:"gt=0"`    // maximum archive entries
	ZipMaxEntrySize int64 `mapstructure:"zip_max_entry_size" validate:"gt=0"` // maximum uncompressed bytes per entry
	ZipMaxTotalSize int64 `mapstructure:"zip_max_total_size" validate:"gtefield=ZipMaxEntrySize"`
	RTFMaxDepth     int   `mapstructure:"rtf_max_depth" validate:"gt=0,lte=100000"` // maximum RTF group nesting
	PDFMaxDepth     int   `mapstructure:"pdf_max_depth" validate:"gt=0,lte=100000"` // maximum PDF array/dictionary nesting
}

// AIConfig holds the learned-score plug-in configuration
type AIConfig struct {
	Enabled  bool   `mapstructure:"ai_enabled"`                                  // consult the model for a learned score
	Model    string `mapstructure:"ai_model" validate:"oneof=haiku sonnet opus"` // Model: haiku, sonnet, opus
	APIToken string `mapstructure:"ai_token"`                                    // Anthropic API token
	Timeout  int    `mapstructure:"ai_timeout" validate:"gte=0"`                 // Seconds per request
}

// Default sanitizer limits
const (
	DefaultZipMaxEntries   = 10000
	DefaultZipMaxEntrySize = 256 << 20
	DefaultZipMaxTotalSize = 1 << 30
	DefaultRTFMaxDepth     = 4096
	DefaultPDFMaxDepth     = 256
)

// DocumentExtensions are the extensions picked up by default when walking
var DocumentExtensions = []string{
	"pdf", "rtf",
	"docx", "docm", "dotx", "dotm",
	"xlsx", "xlsm", "xltx", "xltm",
	"pptx", "pptm", "ppsx", "ppsm", "potx", "potm",
}

// Default returns the configuration with every default applied
func Default() *Config {
	return &Config{
		Workers:    runtime.NumCPU(),
		MaxSize:    "50M",
		Extensions: append([]string(nil), DocumentExtensions...),
		Exclude:    []string{".git", "node_modules", "vendor", ".svn", ".hg"},
		Sanitizer: SanitizerConfig{
			ZipMaxEntries:   DefaultZipMaxEntries,
			ZipMaxEntrySize: DefaultZipMaxEntrySize,
			ZipMaxTotalSize: DefaultZipMaxTotalSize,
			RTFMaxDepth:     DefaultRTFMaxDepth,
			PDFMaxDepth:     DefaultPDFMaxDepth,
		},
		AI: AIConfig{
			Model:   "haiku",
			Timeout: 30,
		},
	}
}

// LoadConfig loads configuration from defaults, an optional config file and
// environment variables
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	d := Default()

	// Set defaults
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max_size", d.MaxSize)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("output_file", d.OutputFile)
	v.SetDefault("out_dir", d.OutDir)
	v.SetDefault("rules_path", d.RulesPath)
	v.SetDefault("metrics_file", d.MetricsFile)

	// Sanitizer defaults
	v.SetDefault("sanitizer.zip_max_entries", d.Sanitizer.ZipMaxEntries)
	v.SetDefault("sanitizer.zip_max_entry_size", d.Sanitizer.ZipMaxEntrySize)
	v.SetDefault("sanitizer.zip_max_total_size", d.Sanitizer.ZipMaxTotalSize)
	v.SetDefault("sanitizer.rtf_max_depth", d.Sanitizer.RTFMaxDepth)
	v.SetDefault("sanitizer.pdf_max_depth", d.Sanitizer.PDFMaxDepth)

	// AI defaults
	v.SetDefault("ai.ai_enabled", d.AI.Enabled)
	v.SetDefault("ai.ai_model", d.AI.Model)
	v.SetDefault("ai.ai_token", d.AI.APIToken)
	v.SetDefault("ai.ai_timeout", d.AI.Timeout)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	// Read environment variables
	v.SetEnvPrefix("DOCSENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ShouldScanFile determines if a file should be picked up based on extension
func (c *Config) ShouldScanFile(extension string) bool {
	exts := c.Extensions
	if len(exts) == 0 {
		exts = DocumentExtensions
	}

	for _, ext := range exts {
		if strings.EqualFold(ext, extension) {
			return true
		}
	}
	return false
}
