// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/pipeline"
)

var downloadCmd = &cobra.Command{
	Use:   "download [urls...]",
	Short: "Fetch PDFs through the serialized download queue",
	Long: `Download enqueues URLs and fetches them one at a time in order. With
--best, the top-ranked discovered link of each given book id is enqueued
instead, and the book's status advances as the fetch progresses.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("book", "", "associate all given URLs with this book id")
	downloadCmd.Flags().Bool("best", false, "treat arguments as book ids and enqueue each book's best link")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide URLs, or book ids with --best")
	}
	bookID, _ := cmd.Flags().GetString("book")
	best, _ := cmd.Flags().GetBool("best")

	p, err := pipeline.New(pipelineConfig(), os.Stderr)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	enqueued := 0
	if best {
		for _, id := range args {
			links, err := p.Store.ListPdfLinks(ctx, id)
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Printf("no candidate links for book %s\n", id)
				continue
			}
			if _, err := p.Downloads.Enqueue(links[0].URL, id); err != nil {
				return err
			}
			enqueued++
		}
	} else {
		for _, rawURL := range args {
			if _, err := p.Downloads.Enqueue(rawURL, bookID); err != nil {
				return err
			}
			enqueued++
		}
	}
	if enqueued == 0 {
		return fmt.Errorf("nothing to download")
	}

	bar := progressbar.NewOptions(enqueued,
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)

	for {
		s := p.Downloads.Status()
		bar.Set(s.Completed + s.Failed)
		if s.Queued == 0 && len(s.Active) == 0 {
			fmt.Println()
			if s.Failed > 0 {
				_, failed := p.Downloads.Items()
				for _, item := range failed {
					fmt.Printf("failed: %s (%s)\n", item.URL, item.Error)
				}
				return fmt.Errorf("%d download(s) failed", s.Failed)
			}
			fmt.Printf("%d file(s) downloaded to %s\n", s.Completed, pipelineConfig().Download.Dir)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}
