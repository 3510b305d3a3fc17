// Package cmd implements the fundeb CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/allocation"
	"github.com/rodrigosramos/fundeb-mvp/internal/assistant"
	"github.com/rodrigosramos/fundeb-mvp/internal/catalog"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/logger"
)

var (
	flagCatalog  string
	flagWeights  string
	flagYear     int
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "fundeb",
	Short: "FUNDEB VAAT/VAAF complement calculator",
	Long: "Estimate the federal VAAT and VAAF complements a municipality receives from FUNDEB,\n" +
		"simulate enrollment scenarios and ask questions about the rules.",
	SilenceUsage: true,
	RunE:         runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Municipality catalog JSON (default: bundled sample)")
	rootCmd.PersistentFlags().StringVar(&flagWeights, "weights", "", "Weight table JSON (default: bundled table)")
	rootCmd.PersistentFlags().IntVar(&flagYear, "year", 0, "Allocation year (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file and .env, then applies flag overrides.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagCatalog != "" {
		cfg.General.CatalogPath = flagCatalog
	}
	if flagWeights != "" {
		cfg.General.WeightsPath = flagWeights
	}
	if flagYear > 0 {
		cfg.General.Year = flagYear
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if flagQuiet && flagLogLevel == "" {
		log = log.Level(zerolog.WarnLevel)
	}
	logger.SetGlobal(log)
	return log
}

func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	c, err := catalog.Load(cfg.General.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return c, nil
}

func loadEngine(cfg config.Config) (*allocation.Engine, error) {
	wt, err := config.LoadWeights(cfg.General.WeightsPath)
	if err != nil {
		return nil, err
	}
	return allocation.New(wt, allocation.WithYear(cfg.General.Year))
}

// loadAll is the shared setup path for commands that compute allocations.
func loadAll() (config.Config, *catalog.Catalog, *allocation.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	eng, err := loadEngine(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, cat, eng, nil
}

// newAssistant returns nil when no API key is configured.
func newAssistant(cfg config.Config, eng *allocation.Engine) *assistant.Client {
	opts := []assistant.Option{
		assistant.WithWeights(eng.Weights(), eng.Year()),
	}
	if cfg.Assistant.Model != "" {
		opts = append(opts, assistant.WithModel(cfg.Assistant.Model))
	}
	if cfg.Assistant.MaxTokens > 0 {
		opts = append(opts, assistant.WithMaxTokens(cfg.Assistant.MaxTokens))
	}
	if cfg.Assistant.BaseURL != "" {
		opts = append(opts, assistant.WithBaseURL(cfg.Assistant.BaseURL))
	}
	return assistant.NewClient(config.GetAPIKey(cfg), opts...)
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
