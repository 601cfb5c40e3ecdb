package main

import (
	"github.com/spf13/cobra"

	"github.com/motoroverpropage/motorover.in/internal/config"
	"github.com/motoroverpropage/motorover.in/internal/verify"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check crawl output against sitemap.xml and downloaded images",
		Args:  cobra.NoArgs,
		RunE:  runVerifyCmd,
	}
	cmd.Flags().String("sitemap", "sitemap.xml", "Path to the site's sitemap.xml")
	cmd.Flags().String("content", "content", "Directory holding the crawl artifacts")
	cmd.Flags().String("images", "assets/img", "Directory of downloaded images")
	cmd.Flags().String("root", config.Default().Site.BaseURL, "Site root treated as equal with or without a trailing slash")
	return cmd
}

func runVerifyCmd(cmd *cobra.Command, _ []string) error {
	var opts verify.Options
	flags := []struct {
		name string
		dst  *string
	}{
		{"sitemap", &opts.SitemapPath},
		{"content", &opts.ContentDir},
		{"images", &opts.ImagesDir},
		{"root", &opts.RootURL},
	}
	for _, f := range flags {
		v, err := cmd.Flags().GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	report, err := verify.Run(opts)
	if err != nil {
		return err
	}
	report.Render(cmd.OutOrStdout())
	return nil
}
