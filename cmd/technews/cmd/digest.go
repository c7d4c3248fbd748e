package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/technews/internal/app"
	"github.com/deusflow/technews/internal/config"
	"github.com/deusflow/technews/internal/logger"
	"github.com/deusflow/technews/internal/news"
	"github.com/deusflow/technews/internal/topics"
)

var (
	flagLimit int
	flagTopic string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Fetch, deduplicate and rank headlines once, without AI summaries",
	RunE:  runDigest,
}

func init() {
	digestCmd.Flags().IntVar(&flagLimit, "limit", 20, "number of headlines to fetch (1-100)")
	digestCmd.Flags().StringVar(&flagTopic, "topic", "", "only headlines about this topic")
}

func runDigest(cmd *cobra.Command, args []string) error {
	if flagLimit < 1 || flagLimit > 100 {
		return fmt.Errorf("--limit must be between 1 and 100")
	}

	cfg, err := config.Read()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.ValidateSource(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.Debug); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	extractor := topics.NewExtractor()
	source, err := app.NewSource(cfg, extractor)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	articles, err := source.Fetch(ctx, news.Query{Limit: flagLimit, Topic: flagTopic})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	now := time.Now()
	ranked := news.Rank(news.Deduplicate(articles), now)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tSOURCE\tTITLE")
	for _, a := range ranked {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", a.ID, news.Score(a, now), a.Source, a.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d headlines, %d after dedup\n", len(articles), len(ranked))
	if trending := extractor.Extract(ranked); len(trending) > 0 {
		fmt.Fprintf(os.Stderr, "trending: %s\n", strings.Join(trending, ", "))
	}
	return nil
}
