package cmd

import (
	"github.com/hartfelt/mediakeep/config"
	"github.com/hartfelt/mediakeep/pkg/logger"
	"github.com/hartfelt/mediakeep/server"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the media server",
	Long:  `start the media server`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Get()

		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatal("failed to read configurations", zap.Error(err))
		}

		m, lib := buildManager(cfg)
		if err := lib.EnsureRoots(); err != nil {
			log.Fatal("failed to create library directories", zap.Error(err))
		}

		srv := server.New(log, m, cfg.Library.Root)
		log.Error(srv.Serve(cfg.Server.Port))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
