package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags.
var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// NewRootCmd creates the sitecrawler command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawler",
		Short: "Crawl a single-domain site into structured JSON",
		Long: `sitecrawler walks one website breadth-first, politely, and decomposes
every page into content.json, entities.json, assets.json and sitemap.json.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// NewVersionCmd prints the build version.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitecrawler version %s\n", getVersion())
		},
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
