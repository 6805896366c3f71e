package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/margin/internal/adapters/driven/ai"
	"github.com/custodia-labs/margin/internal/adapters/driven/config/file"
	"github.com/custodia-labs/margin/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/margin/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/margin/internal/adapters/driving/cli"
	"github.com/custodia-labs/margin/internal/connectors/filesystem"
	"github.com/custodia-labs/margin/internal/core/domain"
	"github.com/custodia-labs/margin/internal/core/ports/driven"
	"github.com/custodia-labs/margin/internal/core/services"
	"github.com/custodia-labs/margin/internal/logger"
	"github.com/custodia-labs/margin/internal/normalisers"
	"github.com/custodia-labs/margin/internal/postprocessors"
)

// bootstrap wires adapters and services from the persisted settings.
func bootstrap(ctx context.Context, o cli.Overrides) (*cli.Services, error) {
	dir := o.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("config directory: %w", err)
		}
		dir = d
	}
	dir = expandHome(dir)

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(store, ai.NewConfigValidator())

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if o.NotesRoot != "" {
		settings.Notes.Root = o.NotesRoot
	}
	root := expandHome(settings.Notes.Root)
	logger.Debug("Notes root: %s", root)

	var closers []func() error

	factory := ai.NewFactory()
	closers = append(closers, factory.Close)
	initRes := factory.Init(ctx, settings)

	cache, closeCache, err := openCache(dir, settings.Cache)
	if err != nil {
		return nil, errors.Join(err, closeAll(closers))
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	pipeline, err := postprocessors.DefaultPipeline(settings.Notes.MaxChunkLength)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build pipeline: %w", err), closeAll(closers))
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open prompts: %w", err), closeAll(closers))
	}

	connector := filesystem.New(root)
	closers = append(closers, connector.Close)
	registry := normalisers.NewDefaultRegistry()

	corpus := services.NewCorpusService(connector, registry, pipeline, initRes.EmbeddingService, cache)
	corpus.OnInvalidate(factory.Invalidate)

	search := services.NewSearchService(corpus, initRes.EmbeddingService)
	assistant := services.NewAssistantService(corpus, search, initRes.LLMService, prompts, settings.Retrieval)

	return &cli.Services{
		Corpus:    corpus,
		Search:    search,
		Assistant: assistant,
		Source:    services.NewSourceService(corpus, connector, registry),
		Link:      services.NewLinkService(corpus),
		Settings:  settingsSvc,
		Close:     func() error { return closeAll(closers) },
	}, nil
}

// openCache returns the embedding cache for the configured backend, or nil
// for "none". The returned close func is nil when nothing needs releasing.
func openCache(dir string, cfg domain.CacheSettings) (driven.EmbeddingCache, func() error, error) {
	switch cfg.Backend {
	case domain.CacheBackendNone:
		return nil, nil, nil
	case domain.CacheBackendSQLite:
		path := expandHome(cfg.Path)
		if path == "" {
			path = filepath.Join(dir, "cache", sqlite.DefaultFileName)
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open embedding cache: %w", err)
		}
		logger.Debug("Embedding cache: %s", store.Path())
		return store.EmbeddingCache(), store.Close, nil
	case domain.CacheBackendMemory, "":
		return memory.NewEmbeddingCache(), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// closeAll runs closers in reverse order and joins their errors.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
