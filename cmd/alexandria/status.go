// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/store"
	"github.com/pdiddy/alexandria/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the pipeline's persisted state",
	RunE:  runStatus,
}

// statusOrder fixes the display order of the workflow states.
var statusOrder = []types.BookStatus{
	types.StatusSearching,
	types.StatusFound,
	types.StatusNotFound,
	types.StatusDownloading,
	types.StatusPendingApproval,
	types.StatusReady,
	types.StatusFailed,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.ReadStats(context.Background())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(statusOrder))
	for _, st := range statusOrder {
		rows = append(rows, []string{string(st), strconv.Itoa(stats.ByStatus[st])})
	}
	fmt.Println(renderTable(
		[]string{"Status", "Books"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	fmt.Printf("%d book(s), %d candidate link(s) (%d broken)\n",
		stats.Books, stats.Links, stats.BrokenLinks)
	return nil
}
