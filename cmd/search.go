package cmd

import (
	"context"
	"log"
	"net/url"

	"github.com/hartfelt/mediakeep/config"
	mhttp "github.com/hartfelt/mediakeep/pkg/http"
	"github.com/hartfelt/mediakeep/pkg/metadata/tmdb"
	"github.com/hartfelt/mediakeep/pkg/parse"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var searchQuery string

// searchCmd searches the metadata provider directly
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "search the metadata provider",
	Long:  `search the metadata provider`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.New(viper.GetViper())
		if err != nil {
			log.Fatalf("failed to read configurations: %v", err)
		}

		u := url.URL{
			Scheme: cfg.TMDB.Scheme,
			Host:   cfg.TMDB.Host,
		}

		c := tmdb.New(u.String(), cfg.TMDB.APIKey, tmdb.WithHTTPClient(mhttp.NewRetryClient()))

		ctx := context.TODO()
		candidates, err := c.Search(ctx, searchQuery, nil, parse.KindUnknown)
		if err != nil {
			log.Fatalf("failed to search: %v", err)
		}

		if len(candidates) == 0 {
			log.Fatal("no results found")
		}

		for _, candidate := range candidates {
			log.Printf("%s (%d) [%s]", candidate.Title, candidate.Year, candidate.Kind)
		}
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "a query for titles")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}
