package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/tui/theme"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	prompt := func() string {
		fmt.Print("     > ")
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("  Welcome to fundeb!")
	fmt.Println()
	fmt.Printf("  Catalog: %d municipalities in %d states\n\n", cat.Len(), len(cat.UFs()))

	// 1. API key
	fmt.Println("  1. Anthropic API key")
	fmt.Println("     Enables `fundeb ask`, `fundeb explain` and the dashboard chat.")
	if existing := config.GetAPIKey(cfg); existing != "" {
		fmt.Printf("     Current: %s\n", maskAPIKey(existing))
	}
	if key := prompt(); key != "" {
		cfg.Assistant.APIKey = key
	}
	fmt.Println()

	// 2. Model
	fmt.Println("  2. Model")
	fmt.Printf("     Current: %s (Enter keeps it)\n", cfg.Assistant.Model)
	if m := prompt(); m != "" {
		cfg.Assistant.Model = m
	}
	fmt.Println()

	// 3. Theme
	fmt.Println("  3. Color theme")
	names := theme.Names()
	for i, name := range names {
		marker := ""
		if name == theme.ByName(cfg.Appearance.Theme).Name {
			marker = " [current]"
		}
		fmt.Printf("     (%d) %s%s\n", i+1, name, marker)
	}
	if n, err := strconv.Atoi(prompt()); err == nil && n >= 1 && n <= len(names) {
		cfg.Appearance.Theme = names[n-1]
	}
	fmt.Println()

	// 4. Default state
	fmt.Println("  4. Default state (UF) for the dashboard picker")
	fmt.Printf("     Available: %s\n", strings.Join(cat.UFs(), " "))
	fmt.Println("     Leave empty to choose every time.")
	if uf := strings.ToUpper(prompt()); uf != "" {
		if len(cat.ByUF(uf)) == 0 {
			fmt.Printf("     Unknown state %q, keeping %q\n", uf, cfg.General.DefaultUF)
		} else {
			cfg.General.DefaultUF = uf
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `fundeb setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
