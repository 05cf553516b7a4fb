// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/store"
)

var linksCmd = &cobra.Command{
	Use:   "links [book-id]",
	Short: "List the discovered candidate links for a book",
	RunE:  runLinks,
}

func init() {
	rootCmd.AddCommand(linksCmd)
}

func runLinks(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide a book id")
	}

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	book, err := s.GetBook(ctx, args[0])
	if err != nil {
		return err
	}
	links, err := s.ListPdfLinks(ctx, book.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s by %s [%s]\n\n", book.Title, book.Author, book.Status)
	if len(links) == 0 {
		fmt.Println("No candidate links.")
		return nil
	}

	rows := make([][]string, 0, len(links))
	for _, l := range links {
		rows = append(rows, []string{
			l.ID, l.URL, l.Source, strconv.Itoa(l.Score), string(l.Confidence),
		})
	}
	fmt.Println(renderTable(
		[]string{"ID", "URL", "Source", "Score", "Confidence"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
