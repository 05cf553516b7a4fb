// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/match"
	"github.com/pdiddy/alexandria/internal/store"
	"github.com/pdiddy/alexandria/pkg/types"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Register and list books",
}

var booksAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Register a single book",
	Long: `Add registers one book in SEARCHING state. The author is taken from
--author, or parsed from the title when it contains a "Title - Author"
or "Title by Author" separator.`,
	RunE: runBooksAdd,
}

var booksImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Register books from a text file, one per line",
	Long: `Import reads lines of the form "Title - Author" (em, en, or plain dash,
or " by ") and registers each as a book in SEARCHING state. Blank lines
and lines starting with # are skipped.`,
	RunE: runBooksImport,
}

var booksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered books",
	RunE:  runBooksList,
}

func init() {
	booksAddCmd.Flags().String("author", "", "book author (overrides any author parsed from the title)")
	booksAddCmd.Flags().String("isbn", "", "ISBN-10 or ISBN-13")
	booksAddCmd.Flags().Int("year", 0, "publication year")

	booksListCmd.Flags().String("search", "", "filter by title or author substring")
	booksListCmd.Flags().String("status", "", "filter by status (SEARCHING, FOUND, ...)")
	booksListCmd.Flags().String("sort", "", "sort column: title, author, year, status, created_at, updated_at")
	booksListCmd.Flags().Bool("desc", false, "sort descending")
	booksListCmd.Flags().Bool("json", false, "emit JSON instead of a table")

	booksCmd.AddCommand(booksAddCmd)
	booksCmd.AddCommand(booksImportCmd)
	booksCmd.AddCommand(booksListCmd)
	rootCmd.AddCommand(booksCmd)
}

func runBooksAdd(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the book title as a single argument")
	}

	title, author := args[0], ""
	if flagAuthor, _ := cmd.Flags().GetString("author"); flagAuthor != "" {
		author = flagAuthor
	} else {
		title, author = match.ParseTitleAuthor(args[0])
		if author == "" {
			return fmt.Errorf("no author given: use --author or a \"Title - Author\" argument")
		}
	}
	isbn, _ := cmd.Flags().GetString("isbn")
	year, _ := cmd.Flags().GetInt("year")

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.CreateBook(context.Background(), types.Book{
		Title:  title,
		Author: author,
		ISBN:   isbn,
		Year:   year,
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %q by %s (%s)\n", title, author, id)
	return nil
}

func runBooksImport(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the list file as a single argument")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening list file: %w", err)
	}
	defer f.Close()

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	registered, skipped := 0, 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		title, author := match.ParseTitleAuthor(line)
		if author == "" {
			fmt.Printf("skipped (no author): %s\n", line)
			skipped++
			continue
		}
		if _, err := s.CreateBook(ctx, types.Book{Title: title, Author: author}); err != nil {
			fmt.Printf("skipped (%v): %s\n", err, line)
			skipped++
			continue
		}
		registered++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading list file: %w", err)
	}

	fmt.Printf("\nregistered: %d, skipped: %d\n", registered, skipped)
	return nil
}

func runBooksList(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	status, _ := cmd.Flags().GetString("status")
	sortBy, _ := cmd.Flags().GetString("sort")
	desc, _ := cmd.Flags().GetBool("desc")

	s, err := store.Open(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer s.Close()

	books, err := s.ListBooks(context.Background(), store.ListOptions{
		Search: search,
		Status: types.BookStatus(strings.ToUpper(status)),
		SortBy: sortBy,
		Desc:   desc,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}

	if len(books) == 0 {
		fmt.Println("No books found.")
		return nil
	}

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		year := ""
		if b.Year > 0 {
			year = strconv.Itoa(b.Year)
		}
		rows = append(rows, []string{b.ID, b.Title, b.Author, year, string(b.Status), b.PDFPath})
	}
	fmt.Println(renderTable(
		[]string{"ID", "Title", "Author", "Year", "Status", "File"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Printf("%d book(s)\n", len(books))
	return nil
}
