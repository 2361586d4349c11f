package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/ai"
	"github.com/IvanShishkin/docsentry/internal/config"
	"github.com/IvanShishkin/docsentry/internal/core"
	"github.com/IvanShishkin/docsentry/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorOrange = "\033[38;5;208m"
	colorYellow = "\033[38;5;220m"
	colorGray   = "\033[38;5;245m"
)

var (
	version     = "0.1.0"
	logger      *zap.Logger
	verbose     bool
	configFile  string
	metricsFile string
	aiEnabled   bool
	assumeYes   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsentry",
		Short: "Docsentry - document scanner and sanitizer",
		Long: `Scans PDF, Office Open XML and RTF documents for active content,
removes macros, scripts and embedded objects, and reports the risk before
and after sanitization.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printBanner()
			cmd.Help()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	rootCmd.PersistentFlags().BoolVar(&aiEnabled, "ai", false, "Consult the Anthropic model for a learned risk score")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation before AI scoring")

	// Add commands
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(sanitizeCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(explainCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError:%s %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}
}

// newLogger builds a development logger for -v and an error-only JSON
// logger otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	// Silent logger - only errors
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	return cfg.Build()
}

// loadConfig loads configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}
	if aiEnabled {
		cfg.AI.Enabled = true
	}
	if cfg.AI.Enabled && cfg.AI.APIToken == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		fmt.Fprintf(os.Stderr, "  %s⚠ AI scoring needs ai_token or ANTHROPIC_API_KEY; continuing without it%s\n", colorYellow, colorReset)
		cfg.AI.Enabled = false
	}
	return cfg, nil
}

// newScanner creates a scanner with metrics attached when a metrics file
// is configured
func newScanner(cfg *config.Config) (*core.Scanner, *metrics.Metrics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		m    *metrics.Metrics
		opts []core.Option
	)
	if cfg.MetricsFile != "" {
		m = metrics.New()
		opts = append(opts, core.WithMetrics(m))
	}

	scanner, err := core.NewScanner(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return scanner, m, nil
}

// flushMetrics writes the metrics textfile if one is configured
func flushMetrics(cfg *config.Config, m *metrics.Metrics) {
	if m == nil || cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error("Failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
	}
}

// confirmAI asks before sending feature summaries of many documents to the
// model
func confirmAI(cfg *config.Config, documents int) bool {
	if !cfg.AI.Enabled || assumeYes {
		return true
	}

	estimate := ai.EstimateCost(cfg.AI.Model, documents)
	fmt.Printf("\n  %s%sAI Scoring Cost Estimate%s\n", colorBold, colorRed, colorReset)
	fmt.Printf("  %sDocuments:%s     %d\n", colorGray, colorReset, estimate.Documents)
	fmt.Printf("  %sModel:%s         %s\n", colorGray, colorReset, estimate.Model)
	fmt.Printf("  %sEst. Tokens:%s   ~%dk\n", colorGray, colorReset, estimate.EstimatedTokens/1000)
	fmt.Printf("  %sEst. Cost:%s     %s$%.2f%s\n", colorGray, colorReset, colorYellow, estimate.EstimatedCostUSD, colorReset)
	fmt.Println()

	// Ask for confirmation
	fmt.Printf("  %sProceed with AI scoring? [Y/n]:%s ", colorBold, colorReset)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "" || input == "y" || input == "yes"
}

// printBanner prints the startup banner
func printBanner() {
	fmt.Println()
	fmt.Printf("%s%sDOCSENTRY%s\n", colorBold, colorOrange, colorReset)
	fmt.Printf("%sDocument Scanner & Sanitizer v%s%s\n", colorGray, version, colorReset)
	fmt.Println()
}
