// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/pipeline"
	"github.com/pdiddy/alexandria/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the incoming directory and file new PDFs",
	Long: `Watch observes the configured watch directory. Each new PDF is left to
settle, identified, copied into the library under its canonical name,
and registered as a book pending approval. Runs until interrupted.`,
	RunE: runWatch,
}

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "File every PDF in a directory into the library",
	RunE:  runImport,
}

var approveCmd = &cobra.Command{
	Use:   "approve [book-ids...]",
	Short: "Approve pending books, marking them READY",
	RunE:  runApprove,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(approveCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := pipeline.New(pipelineConfig(), os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = p.Watcher(os.Stdout).Watch(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nstopped")
		return nil
	}
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the directory to import")
	}

	p, err := pipeline.New(pipelineConfig(), os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	summary, err := p.Importer.ImportDir(context.Background(), args[0])
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to import", summary.Failed)
	}
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more book ids")
	}

	p, err := pipeline.New(pipelineConfig(), os.Stdout)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	failed := 0
	for _, id := range args {
		if err := p.Store.SetStatus(ctx, id, types.StatusReady); err != nil {
			fmt.Printf("failed: %s (%v)\n", id, err)
			failed++
			continue
		}
		fmt.Printf("approved: %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d book(s) failed approval", failed)
	}
	return nil
}
