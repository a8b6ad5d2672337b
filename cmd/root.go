package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediakeep",
	Short: "mediakeep cli",
	Long:  `mediakeep cli`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}

func initConfig() {
	viper.SetConfigFile(cfgFile)

	viper.SetEnvPrefix("MEDIAKEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", ""))
	viper.AutomaticEnv()

	viper.SetDefault("tmdb.scheme", "https")
	viper.SetDefault("tmdb.host", "api.themoviedb.org")
	viper.SetDefault("tmdb.imageHost", "https://image.tmdb.org")
	viper.SetDefault("tmdb.apiKey", "")
	viper.SetDefault("tmdb.timeout", time.Second*10)
	viper.SetDefault("tmdb.backoff", time.Millisecond*500)
	viper.SetDefault("tmdb.maxRetries", 3)

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("library.root", "./media")
	viper.SetDefault("library.movie", "")
	viper.SetDefault("library.show", "")
	viper.SetDefault("library.unmatched", "")
	viper.SetDefault("library.photo", "")

	viper.SetDefault("index.ttl", time.Minute)
}
