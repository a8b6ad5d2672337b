package cmd

import (
	"context"
	"path/filepath"

	"github.com/hartfelt/mediakeep/config"
	"github.com/hartfelt/mediakeep/pkg/logger"
	"github.com/hartfelt/mediakeep/pkg/manager"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd runs the pipeline on local files without going through the server
var ingestCmd = &cobra.Command{
	Use:        "ingest",
	Short:      "ingest files into the library",
	Long:       `ingest files into the library`,
	Args:       cobra.MinimumNArgs(1),
	ArgAliases: []string{"files to ingest"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log := logger.Get()
		ctx = logger.WithCtx(ctx, log)

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configurations", err)
		}

		m, lib := buildManager(cfg)
		if err := lib.EnsureRoots(); err != nil {
			log.Fatal("failed to create library directories", err)
		}

		for _, path := range args {
			result, err := m.Ingest(ctx, manager.IngestRequest{
				Path:         path,
				OriginalName: filepath.Base(path),
			})
			if err != nil {
				log.Errorw("failed to ingest", "path", path, "error", err)
				continue
			}

			log.Infow("ingested", "path", path, "stored", result.StoredPath, "category", result.Category)
		}

		m.WaitPosters()
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
