// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the alexandria CLI.
// Implements: prd001-scoring through prd006-filing (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/alexandria/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "alexandria/0.1"

// rootCmd is the base command for the alexandria CLI.
var rootCmd = &cobra.Command{
	Use:   "alexandria",
	Short: "Book acquisition pipeline: discover, download, and file PDFs",
	Long: `alexandria registers books by title and author, discovers candidate PDF
links on the web, downloads them through a serialized queue, and files the
results into a canonically named library.

Each pipeline stage is a subcommand: books, discover, links, download,
import, watch, match, rename, and status.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./alexandria.yaml or ~/.config/alexandria/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("alexandria")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "alexandria"))
		}
	}

	viper.SetEnvPrefix("ALEXANDRIA")
	viper.AutomaticEnv()

	viper.SetDefault("store.path", filepath.Join("data", "alexandria.db"))
	viper.SetDefault("discovery.profile", "strict")
	viper.SetDefault("discovery.max_results", 20)
	viper.SetDefault("discovery.rate_limit_delay", 2*time.Second)
	viper.SetDefault("discovery.extended_delay_every", 5)
	viper.SetDefault("discovery.timeout", 30*time.Second)
	viper.SetDefault("download.dir", "downloads")
	viper.SetDefault("download.timeout", 5*time.Minute)
	viper.SetDefault("library.dir", "library")
	viper.SetDefault("library.watch_dir", "incoming")
	viper.SetDefault("library.settle_delay", 2*time.Second)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configurations from viper.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
		},
		Discovery: types.DiscoveryConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("discovery.timeout"),
				UserAgent: userAgent(),
			},
			Profile:            viper.GetString("discovery.profile"),
			MaxResults:         viper.GetInt("discovery.max_results"),
			TopN:               viper.GetInt("discovery.top_n"),
			RateLimitDelay:     viper.GetDuration("discovery.rate_limit_delay"),
			ExtendedDelayEvery: viper.GetInt("discovery.extended_delay_every"),
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: userAgent(),
			},
			Dir: viper.GetString("download.dir"),
		},
		Library: types.LibraryConfig{
			Dir:           viper.GetString("library.dir"),
			WatchDir:      viper.GetString("library.watch_dir"),
			SettleDelay:   viper.GetDuration("library.settle_delay"),
			KnowledgeFile: viper.GetString("library.knowledge_file"),
		},
	}
}

func userAgent() string {
	if ua := viper.GetString("http.user_agent"); ua != "" {
		return ua
	}
	return defaultUserAgent
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
