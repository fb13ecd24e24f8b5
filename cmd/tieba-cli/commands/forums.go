package commands

import (
	"fmt"
	"tieba-assist/internal/tasks"
	"tieba-assist/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var findQuery *string
var minSimilarity *float64
var trendingPage *int
var trendingSize *int

func init() {
	findQuery = forumsCmd.Flags().String("find", "", "Only list forums whose name is similar to the query, most similar first.")
	minSimilarity = forumsCmd.Flags().Float64("min-similarity", 0.7, "The minimum Jaro-Winkler similarity for --find.")
	trendingPage = trendingCmd.Flags().Int("page", 0, "The page of recommendations, defaults to the configured page.")
	trendingSize = trendingCmd.Flags().Int("size", 0, "The page size of recommendations, defaults to the configured size.")
	rootCmd.AddCommand(forumsCmd)
	rootCmd.AddCommand(trendingCmd)
}

var forumsCmd = &cobra.Command{
	Use:   "forums [--find <query>]",
	Short: "Lists the forums followed by the account.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}

		forums := env.client.CollectAllFollowed(cmd.Context())

		t := newTable()
		if *findQuery == "" {
			t.AppendHeader(table.Row{"#", "Id", "Name"})
			for i, forum := range forums {
				t.AppendRow(table.Row{i + 1, forum.Id, forum.Name})
			}
			t.AppendFooter(table.Row{"", "Total", len(forums)})
			t.Render()
			return
		}

		ranked := tasks.RankForums(forums, *findQuery, *minSimilarity)
		t.AppendHeader(table.Row{"#", "Id", "Name", "Similarity"})
		for i, r := range ranked {
			t.AppendRow(table.Row{i + 1, r.Forum.Id, r.Forum.Name, fmt.Sprintf("%.2f", r.Similarity)})
		}
		t.Render()
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending [--page <n>] [--size <n>]",
	Short: "Lists the forums currently recommended by the platform.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}

		page := env.config.Trending.Page
		if *trendingPage > 0 {
			page = *trendingPage
		}
		size := env.config.Trending.Size
		if *trendingSize > 0 {
			size = *trendingSize
		}

		forums, err := env.client.ListTrending(cmd.Context(), page, size)
		if err != nil {
			serviceutil.Fatal("failed to list trending forums", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "Id", "Name"})
		for i, forum := range forums {
			t.AppendRow(table.Row{i + 1, forum.Id, forum.Name})
		}
		t.Render()
	},
}
