package cmd

import (
	"fmt"
	"os"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache dir:   %s\n", config.CacheDir())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Year:        %d\n", cfg.General.Year)
	fmt.Printf("    Catalog:     %s\n", orDefault(cfg.General.CatalogPath, "bundled sample"))
	fmt.Printf("    Weights:     %s\n", orDefault(cfg.General.WeightsPath, "bundled table"))
	fmt.Printf("    Default UF:  %s\n", orDefault(cfg.General.DefaultUF, "none"))
	fmt.Println()

	fmt.Println("  [Assistant]")
	apiKey := config.GetAPIKey(cfg)
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		fmt.Printf("    API key:     %s (from ANTHROPIC_API_KEY)\n", maskAPIKey(apiKey))
	case apiKey != "":
		fmt.Printf("    API key:     %s\n", maskAPIKey(apiKey))
	default:
		fmt.Println("    API key:     not configured")
	}
	fmt.Printf("    Model:       %s\n", cfg.Assistant.Model)
	fmt.Printf("    Max tokens:  %d\n", cfg.Assistant.MaxTokens)
	if cfg.Assistant.BaseURL != "" {
		fmt.Printf("    Base URL:    %s\n", cfg.Assistant.BaseURL)
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:     %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:       %s\n", cfg.Log.Level)
	fmt.Printf("    Pretty:      %v\n", cfg.Log.Pretty)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:       %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `fundeb setup` to reconfigure.")
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
