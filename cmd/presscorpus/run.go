package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
)

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run crawl, scrape, load, clean, normalize and report in sequence",
		Long: `Run every stage in order, passing each stage's output to the next. Files
written by completed stages stay on disk if a later stage fails or the run
is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, func(cfg *config.Config) {
				applyCrawlOverrides(cfg)
				applyScrapeOverrides(cfg)
				applyCleanOverrides(cmd)(cfg)
				applyReportOverrides(cfg)
			})
			if err != nil {
				return err
			}
			defer e.metrics.WriteSummary(os.Stdout)

			ctx := cmd.Context()
			start := time.Now()

			links, err := e.crawl(ctx)
			if err != nil {
				return err
			}
			content, err := e.scrape(ctx, links)
			if err != nil {
				return err
			}
			if err := e.load(ctx, links, content); err != nil {
				return err
			}
			if err := e.clean(ctx); err != nil {
				return err
			}
			if err := e.normalize(ctx); err != nil {
				return err
			}
			if err := e.report(ctx); err != nil {
				return err
			}

			e.logger.Info("run complete", "elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	addCrawlFlags(cmd)
	addScrapeFlags(cmd)
	addCleanFlags(cmd)
	addReportFlags(cmd)
	return cmd
}
