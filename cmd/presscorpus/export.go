package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/presscorpus/internal/config"
	"github.com/IshaanNene/presscorpus/internal/storage"
)

var (
	exportFormat string
	exportOutput string
	mongoURI     string
)

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Mirror the joined articles to MongoDB or a JSONL file",
		Long: `Read every article joined with its link and write it to MongoDB (upsert by
link id) or to a JSONL file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, func(cfg *config.Config) {
				if mongoURI != "" {
					cfg.Export.MongoURI = mongoURI
				}
			})
			if err != nil {
				return err
			}
			return e.export(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", "mongo", "export format: mongo or jsonl")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "data/processed/articles.jsonl", "JSONL output path")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (overrides export.mongo_uri)")
	return cmd
}

func (e *env) export(ctx context.Context) error {
	var (
		out storage.Storage
		err error
	)
	switch exportFormat {
	case "mongo", "mongodb":
		if e.cfg.Export.MongoURI == "" {
			return fmt.Errorf("export: no MongoDB URI; set --mongo-uri or export.mongo_uri")
		}
		out, err = storage.NewMongoStorage(ctx, e.cfg.Export.MongoURI, e.cfg.Export.Database, e.cfg.Export.Collection, e.logger)
	case "jsonl":
		out, err = storage.NewJSONLStorage(exportOutput, e.logger)
	default:
		return fmt.Errorf("export: unknown format %q", exportFormat)
	}
	if err != nil {
		return err
	}

	s, err := e.openStore()
	if err != nil {
		_ = out.Close()
		return err
	}
	defer s.Close()

	articles, err := s.Articles(ctx)
	if err != nil {
		_ = out.Close()
		return err
	}
	if err := storage.Export(ctx, out, articles); err != nil {
		return err
	}

	e.logger.Info("export complete", "backend", out.Name(), "articles", len(articles))
	return nil
}
