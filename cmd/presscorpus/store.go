package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/outlier"
	"github.com/IshaanNene/presscorpus/internal/storage"
	"github.com/IshaanNene/presscorpus/internal/store"
	"github.com/IshaanNene/presscorpus/internal/textnorm"
	"github.com/IshaanNene/presscorpus/internal/types"
)

var (
	threshold   float64
	byNewspaper bool
	dryRun      bool
)

// loadCmd creates the "load" subcommand.
func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the links and content CSVs into SQLite",
		Long: `Create the links table if needed, recreate the content table and load both
CSVs. Duplicate URLs are ignored and content rows whose URL is not in links
are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyScrapeOverrides)
			if err != nil {
				return err
			}

			links, err := storage.ReadLinksFile(e.cfg.Crawl.LinksCSV)
			if err != nil {
				return err
			}
			content, err := storage.ReadContentFile(e.cfg.Scrape.ContentCSV)
			if err != nil {
				return err
			}

			err = e.load(cmd.Context(), links, content)
			e.metrics.WriteSummary(os.Stdout)
			return err
		},
	}

	cmd.Flags().StringVar(&linksCSV, "links-csv", "", "links CSV to read")
	cmd.Flags().StringVar(&contentCSV, "content-csv", "", "content CSV to read")
	return cmd
}

// cleanCmd creates the "clean" subcommand.
func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove articles whose word count is an IQR outlier",
		Long: `Flag content rows whose word count falls outside [Q1 - k*IQR, Q3 + k*IQR],
delete them and delete every link left without content, in one transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyCleanOverrides(cmd))
			if err != nil {
				return err
			}
			err = e.clean(cmd.Context())
			e.metrics.WriteSummary(os.Stdout)
			return err
		},
	}

	addCleanFlags(cmd)
	return cmd
}

func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "IQR multiplier k")
	cmd.Flags().BoolVar(&byNewspaper, "per-newspaper", false, "compute bounds per newspaper")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "detect and report without writing")
}

func applyCleanOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if threshold > 0 {
			cfg.Cleaner.Threshold = threshold
		}
		if cmd.Flags().Changed("per-newspaper") {
			cfg.Cleaner.GroupByNewspaper = byNewspaper
		}
		if cmd.Flags().Changed("dry-run") {
			cfg.Cleaner.DryRun = dryRun
		}
	}
}

// normalizeCmd creates the "normalize" subcommand.
func normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Write clean_text and clean_title for every article",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			return e.normalize(cmd.Context())
		},
	}
}

func (e *env) openStore() (*store.Store, error) {
	return store.Open(e.cfg.Store.Path, e.logger)
}

func (e *env) load(ctx context.Context, links []types.LinkRow, content []types.ContentRow) error {
	if err := os.MkdirAll(filepath.Dir(e.cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.Populate(ctx, links, content)
	if err != nil {
		return err
	}
	e.metrics.RowsInserted.Add(int64(stats.Links.Inserted + stats.Content.Inserted))
	e.metrics.RowsIgnored.Add(int64(stats.Links.Ignored + stats.Content.Ignored))
	e.metrics.RowsOrphaned.Add(int64(stats.Content.Orphaned))

	in, err := s.CheckIntegrity(ctx)
	if err != nil {
		return err
	}
	if !in.OK() {
		return fmt.Errorf("integrity check failed: %d content rows without link", in.ContentWithoutLink)
	}

	e.logger.Info("load complete",
		"db", e.cfg.Store.Path,
		"links", in.Links,
		"content", in.Content,
		"orphaned", stats.Content.Orphaned,
	)
	return nil
}

func (e *env) clean(ctx context.Context) error {
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	c := outlier.New(s, outlier.Options{
		Threshold:        e.cfg.Cleaner.Threshold,
		GroupByNewspaper: e.cfg.Cleaner.GroupByNewspaper,
		DryRun:           e.cfg.Cleaner.DryRun,
	}, e.metrics, e.logger)

	rep, err := c.Run(ctx)
	if err != nil {
		return err
	}

	for group, b := range rep.Bounds {
		if group == "" {
			group = "all newspapers"
		}
		fmt.Printf("%s: %s\n", group, b)
	}
	fmt.Printf("%d of %d articles are outliers\n", len(rep.Outliers), rep.Rows)
	if rep.DryRun {
		fmt.Println("dry run: database not modified")
		return nil
	}
	fmt.Printf("removed %d content rows and %d links\n", rep.ContentDeleted, rep.LinksDeleted)
	return nil
}

func (e *env) normalize(ctx context.Context) error {
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = textnorm.Apply(ctx, s, textnorm.New(), e.logger)
	return err
}
