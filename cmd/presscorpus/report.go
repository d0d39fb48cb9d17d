package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/report"
	"github.com/IshaanNene/presscorpus/internal/textnorm"
	"github.com/IshaanNene/presscorpus/internal/validate"
)

var (
	reportDir string
	keywords  []string
)

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render charts and per-newspaper summary tables",
		Long: `Write newspaper_contribution.html, publication_dates.html,
word_count_boxplot.html, wordcloud.html and keyword_mentions.html into the
report directory and print summary tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyReportOverrides)
			if err != nil {
				return err
			}
			return e.report(cmd.Context())
		},
	}

	addReportFlags(cmd)
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportDir, "output", "o", "", "report output directory")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "keywords to track per year")
}

func applyReportOverrides(cfg *config.Config) {
	if reportDir != "" {
		cfg.Report.OutputDir = reportDir
	}
	if len(keywords) > 0 {
		cfg.Report.Keywords = keywords
	}
}

func (e *env) report(ctx context.Context) error {
	s, err := e.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	articles, err := s.Articles(ctx)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		e.logger.Warn("no articles in database, nothing to report", "db", e.cfg.Store.Path)
		return nil
	}

	r := report.New(report.Options{
		OutputDir: e.cfg.Report.OutputDir,
		Keywords:  e.cfg.Report.Keywords,
		TopWords:  e.cfg.Report.TopWords,
		Threshold: e.cfg.Cleaner.Threshold,
	}, textnorm.New(), e.logger)

	paths, err := r.Generate(articles)
	if err != nil {
		return err
	}
	r.WriteSummary(os.Stdout, articles)
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
	return nil
}

// validateCmd creates the "validate" subcommand.
func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check CSV outputs and database integrity",
		Long: `Report missing fields and duplicate links in the links CSV, duplicate URLs in
the content CSV and orphan rows in the database. Nothing is modified. Inputs
that do not exist yet are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, applyScrapeOverrides)
			if err != nil {
				return err
			}
			return e.validate(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&linksCSV, "links-csv", "", "links CSV to check")
	cmd.Flags().StringVar(&contentCSV, "content-csv", "", "content CSV to check")
	return cmd
}

func (e *env) validate(ctx context.Context) error {
	problems := 0

	if exists(e.cfg.Crawl.LinksCSV) {
		rep, err := validate.CheckLinksCSV(e.cfg.Crawl.LinksCSV)
		if err != nil {
			return err
		}
		validate.WriteLinks(os.Stdout, rep)
		if !rep.OK() {
			problems++
		}
	} else {
		e.logger.Info("links CSV not found, skipped", "path", e.cfg.Crawl.LinksCSV)
	}

	if exists(e.cfg.Scrape.ContentCSV) {
		rep, err := validate.CheckContentCSV(e.cfg.Scrape.ContentCSV)
		if err != nil {
			return err
		}
		validate.WriteContent(os.Stdout, rep)
		if !rep.OK() {
			problems++
		}
	} else {
		e.logger.Info("content CSV not found, skipped", "path", e.cfg.Scrape.ContentCSV)
	}

	if exists(e.cfg.Store.Path) {
		s, err := e.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		in, err := s.CheckIntegrity(ctx)
		if err != nil {
			return err
		}
		validate.WriteIntegrity(os.Stdout, in)
		if !in.OK() {
			problems++
		}
	} else {
		e.logger.Info("database not found, skipped", "path", e.cfg.Store.Path)
	}

	if problems > 0 {
		return fmt.Errorf("validation found problems in %d input(s)", problems)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
