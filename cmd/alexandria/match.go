// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alexandria/internal/library"
	"github.com/pdiddy/alexandria/internal/match"
)

var matchCmd = &cobra.Command{
	Use:   "match [text]",
	Short: "Resolve free text against the knowledge table",
	Long: `Match normalizes the given text (typically a raw filename) and looks it
up in the knowledge table, printing the best canonical (title, author)
pair and its confidence score.`,
	RunE: runMatch,
}

var renameCmd = &cobra.Command{
	Use:   "rename [files...]",
	Short: "Rename PDF files to their canonical library names",
	Long: `Rename resolves each file's identity (knowledge table, then PDF
metadata, then filename structure) and renames it in place to
"Title - Author.pdf". Collisions get a numeric suffix.`,
	RunE: runRename,
}

func init() {
	renameCmd.Flags().Bool("dry-run", false, "print the planned renames without touching files")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(renameCmd)
}

func loadTableFromConfig() (*match.Table, error) {
	path := pipelineConfig().Library.KnowledgeFile
	if path == "" {
		return match.SeedTable(), nil
	}
	table, err := match.LoadTable(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return match.SeedTable(), nil
		}
		return nil, err
	}
	return table, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide text to match")
	}
	table, err := loadTableFromConfig()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	r := table.Match(text)
	if r.Entry == nil {
		fmt.Printf("no match (best score %.2f)\n", r.Score)
		return nil
	}
	fmt.Printf("%s by %s (score %.2f)\n", r.Entry.Title, r.Entry.Author, r.Score)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files")
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	table, err := loadTableFromConfig()
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("failed: %s (%v)\n", path, err)
			failed++
			continue
		}

		title, author := library.Identify(table, path)
		dir := filepath.Dir(path)
		existing, err := dirListing(dir)
		if err != nil {
			fmt.Printf("failed: %s (%v)\n", path, err)
			failed++
			continue
		}
		delete(existing, filepath.Base(path))
		name := library.Canonicalize(title, author, existing)

		if name == filepath.Base(path) {
			fmt.Printf("unchanged: %s\n", path)
			continue
		}
		if dryRun {
			fmt.Printf("would rename: %s -> %s\n", filepath.Base(path), name)
			continue
		}
		if err := os.Rename(path, filepath.Join(dir, name)); err != nil {
			fmt.Printf("failed: %s (%v)\n", path, err)
			failed++
			continue
		}
		fmt.Printf("renamed: %s -> %s\n", filepath.Base(path), name)
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

func dirListing(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}
