package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/motoroverpropage/motorover.in/internal/config"
	"github.com/motoroverpropage/motorover.in/internal/crawler"
	"github.com/motoroverpropage/motorover.in/internal/storage"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the configured site and write the JSON artifacts",
		Long: `Crawl starts at the configured base URL, follows same-domain links
breadth-first up to the maximum depth, and writes the artifacts into the
output directory. SIGINT or SIGTERM stops the crawl between pages and
whatever was collected so far is still written.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}
	cmd.Flags().StringP("config", "c", "", "Path to crawler configuration file (defaults apply when empty)")
	cmd.Flags().StringP("output", "o", "", "Override the output directory")
	return cmd
}

func loadCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Output.Directory = output
	}
	return cfg, nil
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCrawlConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := crawler.BuildLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := crawler.NewMetrics()
	if addr := cfg.Metrics.ListenAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	engine, err := crawler.NewEngine(*cfg, logger, crawler.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to initialise engine: %w", err)
	}

	started := time.Now()
	snap, runErr := engine.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return fmt.Errorf("crawler stopped with error: %w", runErr)
	}

	sink := storage.NewJSONSink(cfg.Output.Directory)
	if err := sink.Save(context.Background(), snap); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}
	logger.Info("artifacts written", "dir", sink.Dir(), "interrupted", interrupted)

	crawler.Summarize(snap, engine.StateCounts(), time.Since(started)).Render(cmd.OutOrStdout())
	return nil
}
