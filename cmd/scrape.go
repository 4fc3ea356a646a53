package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/propscout/propscout/internal/aggregate"
	"github.com/propscout/propscout/internal/engine"
	"github.com/propscout/propscout/internal/fetchcache"
	"github.com/propscout/propscout/internal/fetcher"
	"github.com/propscout/propscout/internal/model"
	"github.com/propscout/propscout/internal/paginate"
	"github.com/propscout/propscout/internal/sites"
	"github.com/propscout/propscout/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape property listings for a city",
	Long:  "Fetches, normalizes, and deduplicates listings from the selected sites, stores the run, and writes a CSV artifact.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		city, _ := cmd.Flags().GetString("city")
		siteFlag, _ := cmd.Flags().GetString("sites")
		noStore, _ := cmd.Flags().GetBool("no-store")
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.Output.Dir
		}

		if city == "" {
			return eris.New("scrape: --city is required")
		}
		siteIDs, err := model.ParseSiteSelection(siteFlag)
		if err != nil {
			return err
		}

		cache := fetchcache.New()
		f := fetcher.New(cache, fetcher.Options{
			UserAgent:          cfg.Scrape.UserAgent,
			Timeout:            time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			MaxAttempts:        cfg.Scrape.MaxAttempts,
			RequestsPerSecond:  cfg.Scrape.RequestsPerSecond,
			Burst:              cfg.Scrape.Burst,
			PerSiteConcurrency: cfg.Scrape.PerSiteConcurrency,
		})
		agg := aggregate.New(aggregate.Options{
			PriceTolerance:    cfg.Dedup.PriceTolerance,
			AreaToleranceSqFt: cfg.Dedup.AreaToleranceSqFt,
		})
		eng := engine.New(f, cache, sites.NewRegistry(), agg, engine.Options{
			Driver: paginate.Options{
				MaxPages:             cfg.Scrape.MaxPages,
				MaxConsecutiveMisses: cfg.Scrape.MaxConsecutiveMisses,
			},
			MemorySampleInterval: time.Duration(cfg.Scrape.MemSampleMs) * time.Millisecond,
		})

		result, runErr := eng.Run(ctx, city, siteIDs)
		if result == nil {
			return runErr
		}

		if !noStore {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			if err := st.SaveRun(ctx, result); err != nil {
				return err
			}
		}

		if len(result.Listings) > 0 {
			path := store.CSVFileName(outDir, city, result.FinishedAt)
			if err := store.ExportCSV(path, result.Listings); err != nil {
				return err
			}
			fmt.Printf("Wrote %d listings to %s\n", len(result.Listings), path)
		}

		printSummary(result)
		return runErr
	},
}

func printSummary(r *model.RunResult) {
	fmt.Printf("Run %s (%s): %d listings from %d sites, %d errors\n",
		r.ID, r.Status, len(r.Listings), len(r.Sites), len(r.Errors))
	fmt.Printf("  requests=%d cache_hits=%d pages=%d elapsed=%dms peak_mem=%.1fMB\n",
		r.Metrics.RequestCount, r.Metrics.CacheHitCount, r.Metrics.PagesFetched,
		r.Metrics.ElapsedMs, float64(r.Metrics.PeakMemoryBytes)/1e6)
	if len(r.Errors) > 0 {
		fmt.Fprintln(os.Stderr, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e.Error())
		}
	}
}

func init() {
	scrapeCmd.Flags().String("city", "", "city to scrape (required)")
	scrapeCmd.Flags().String("sites", "all", "comma-separated sites: magicbricks, makaan, commonfloor, or all")
	scrapeCmd.Flags().String("out", "", "output directory for the CSV artifact (default from config)")
	scrapeCmd.Flags().Bool("no-store", false, "skip persisting the run to the database")
	_ = scrapeCmd.MarkFlagRequired("city")

	rootCmd.AddCommand(scrapeCmd)
}
