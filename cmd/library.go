package cmd

import (
	"context"

	"github.com/hartfelt/mediakeep/config"
	"github.com/hartfelt/mediakeep/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listMoviesCmd lists movies in the library
var listMoviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "list movies in the library",
	Long:  `list movies in the library`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log := logger.Get()
		ctx = logger.WithCtx(ctx, log)

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configurations", err)
		}

		m, _ := buildManager(cfg)
		movies, err := m.Movies(ctx)
		if err != nil {
			log.Fatal(err)
		}

		for _, item := range movies {
			log.Infow(item.Title, "year", item.Year, "size", item.Size, "files", len(item.MediaFiles))
		}
	},
}

// listShowsCmd lists shows in the library
var listShowsCmd = &cobra.Command{
	Use:   "shows",
	Short: "list shows in the library",
	Long:  `list shows in the library`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log := logger.Get()
		ctx = logger.WithCtx(ctx, log)

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configurations", err)
		}

		m, _ := buildManager(cfg)
		shows, err := m.Shows(ctx)
		if err != nil {
			log.Fatal(err)
		}

		for _, item := range shows {
			log.Infow(item.Title, "year", item.Year, "size", item.Size, "episodes", len(item.MediaFiles))
		}
	},
}

func init() {
	listCmd.AddCommand(listMoviesCmd)
	listCmd.AddCommand(listShowsCmd)
}
