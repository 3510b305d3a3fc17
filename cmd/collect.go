package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rodrigosramos/fundeb-mvp/internal/cli"
	"github.com/rodrigosramos/fundeb-mvp/internal/collect"
	"github.com/rodrigosramos/fundeb-mvp/internal/config"
	"github.com/rodrigosramos/fundeb-mvp/internal/ibge"
	"github.com/rodrigosramos/fundeb-mvp/internal/store"
)

var (
	flagCollectOut      string
	flagCollectNoCache  bool
	flagCollectPopYear  int
	flagCollectCacheTTL time.Duration
	flagCollectClear    bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Build a municipality catalog from the IBGE public APIs",
	Long: "Fetch every municipality and its population estimate from IBGE and write a catalog.\n" +
		"Enrollment, NSE, DRec and eligibility are synthesized deterministically from the\n" +
		"IBGE code, state and population: the output is a simulation dataset, not official data.",
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&flagCollectOut, "out", "o", "municipios.json", "Output catalog path")
	collectCmd.Flags().BoolVar(&flagCollectNoCache, "no-cache", false, "Bypass the SQLite response cache")
	collectCmd.Flags().IntVar(&flagCollectPopYear, "population-year", 2024, "IBGE population estimate year")
	collectCmd.Flags().DurationVar(&flagCollectCacheTTL, "cache-ttl", 7*24*time.Hour, "Maximum age of cached responses")
	collectCmd.Flags().BoolVar(&flagCollectClear, "clear-cache", false, "Empty the response cache before fetching")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	var opts []ibge.Option
	if !flagCollectNoCache {
		cachePath := filepath.Join(config.CacheDir(), "ibge.db")
		cache, err := store.Open(cachePath)
		if err != nil {
			log.Warn().Err(err).Msg("cache unavailable, fetching directly")
		} else {
			defer func() { _ = cache.Close() }()
			if flagCollectClear {
				if err := cache.Clear(); err != nil {
					return fmt.Errorf("clearing cache: %w", err)
				}
			}
			opts = append(opts, ibge.WithCache(cache, flagCollectCacheTTL))
			log.Debug().Str("path", cachePath).Msg("using response cache")
		}
	}

	opts = append(opts, ibge.WithLogger(log))
	client := ibge.NewClient(opts...)
	client.OnFetch = func(url string, cached bool) {
		log.Info().Str("url", url).Bool("cached", cached).Msg("fetched")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := collect.Run(ctx, client, collect.Options{
		PopulationYear: flagCollectPopYear,
		Log:            log,
		Progress: func(current, total int) {
			if current%500 == 0 || current == total {
				progressf("\r  Building %s", cli.RenderProgressBar(current, total, 30))
			}
		},
	})
	if err != nil {
		return err
	}
	progressf("\n")

	if err := collect.WriteJSON(flagCollectOut, res.Records); err != nil {
		return err
	}

	fmt.Printf("  Wrote %s municipalities to %s\n", cli.FormatNumber(int64(len(res.Records))), flagCollectOut)
	fmt.Printf("  With population estimate: %s\n", cli.FormatNumber(int64(res.WithPopulation)))
	if len(res.Skipped) > 0 {
		fmt.Printf("  %s\n", cli.RenderWarning(fmt.Sprintf("Skipped %d without a state", len(res.Skipped))))
	}
	fmt.Printf("  %s\n", cli.RenderMuted("Use it with: fundeb --catalog "+flagCollectOut))
	return nil
}
