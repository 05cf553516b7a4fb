// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the acquisition stages around a shared record
// store so commands hold one handle instead of module-level globals.
// Implements: docs/ARCHITECTURE § Pipeline Context.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pdiddy/alexandria/internal/discover"
	"github.com/pdiddy/alexandria/internal/download"
	"github.com/pdiddy/alexandria/internal/library"
	"github.com/pdiddy/alexandria/internal/match"
	"github.com/pdiddy/alexandria/internal/store"
	"github.com/pdiddy/alexandria/pkg/types"
)

// Pipeline holds one instance of every stage, all sharing the same
// record store.
type Pipeline struct {
	Store     *store.Store
	Discovery *discover.Engine
	Downloads *download.Queue
	Importer  *library.Importer
	Knowledge *match.Table

	cfg types.PipelineConfig
}

// New opens the record store and builds the stages. w receives the
// stages' progress output.
func New(cfg types.PipelineConfig, w io.Writer) (*Pipeline, error) {
	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	table, err := loadKnowledge(cfg.Library.KnowledgeFile)
	if err != nil {
		s.Close()
		return nil, err
	}

	timeout := cfg.Discovery.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	provider := &discover.DuckDuckGo{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: cfg.Discovery.UserAgent,
	}
	engine, err := discover.NewEngine(provider, s, cfg.Discovery, w)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("building discovery engine: %w", err)
	}

	return &Pipeline{
		Store:     s,
		Discovery: engine,
		Downloads: download.NewQueue(s, cfg.Download, w),
		Importer:  library.NewImporter(table, s, cfg.Library, w),
		Knowledge: table,
		cfg:       cfg,
	}, nil
}

// Watcher builds a folder watcher over the configured watch directory.
func (p *Pipeline) Watcher(w io.Writer) *library.Watcher {
	return library.NewWatcher(p.Importer, p.cfg.Library.WatchDir, p.cfg.Library.SettleDelay, w)
}

// Close stops the download worker and releases the record store.
func (p *Pipeline) Close() error {
	p.Downloads.Stop()
	return p.Store.Close()
}

// loadKnowledge returns the built-in table, extended by the optional
// knowledge file when it exists.
func loadKnowledge(path string) (*match.Table, error) {
	if path == "" {
		return match.SeedTable(), nil
	}
	table, err := match.LoadTable(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return match.SeedTable(), nil
		}
		return nil, fmt.Errorf("loading knowledge table: %w", err)
	}
	return table, nil
}
