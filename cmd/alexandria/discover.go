// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/pipeline"
	"github.com/pdiddy/alexandria/internal/store"
	"github.com/pdiddy/alexandria/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [book-ids...]",
	Short: "Search the web for PDF candidates",
	Long: `Discover starts a search session over the given book ids (or every
book in SEARCHING state with --all-searching), scores each hit, and
persists the best candidate links. The session runs in the background;
the command waits for it and prints progress.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("all-searching", false, "discover every book in SEARCHING state")
	discoverCmd.Flags().String("profile", "", "scoring profile: strict or batch (overrides config)")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if profile, _ := cmd.Flags().GetString("profile"); profile != "" {
		cfg.Discovery.Profile = profile
	}

	p, err := pipeline.New(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	ids := args
	if all, _ := cmd.Flags().GetBool("all-searching"); all {
		books, err := p.Store.ListBooks(context.Background(), store.ListOptions{Status: types.StatusSearching})
		if err != nil {
			return err
		}
		for _, b := range books {
			ids = append(ids, b.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide book ids or --all-searching")
	}

	sessionID, err := p.Discovery.Start(ids)
	if err != nil {
		return err
	}
	fmt.Printf("session %s: %d book(s)\n", sessionID, len(ids))

	lastCompleted := -1
	for {
		progress, err := p.Discovery.Progress(sessionID)
		if err != nil {
			return err
		}
		if progress.Completed != lastCompleted && progress.CurrentTitle != "" {
			fmt.Printf("[%d/%d] %s\n", progress.Completed+1, progress.Total, progress.CurrentTitle)
			lastCompleted = progress.Completed
		}
		if progress.Complete {
			fmt.Printf("\ndone: %d/%d book(s) visited\n", progress.Completed, progress.Total)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}
