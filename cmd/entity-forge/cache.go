package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lepinkainen/entity-forge/internal/config"
	"github.com/lepinkainen/entity-forge/pkg/filesystem"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
	"github.com/lepinkainen/entity-forge/pkg/opengraph"
)

// openStore builds the configured cache backend.
func openStore(cfg *config.Config) (metacache.Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return metacache.NewMemoryStore(), nil
	case "sqlite":
		path, err := storePath(cfg.Cache.Path, "metadata.db")
		if err != nil {
			return nil, err
		}
		return metacache.NewSQLiteStore(path)
	case "badger":
		path, err := storePath(cfg.Cache.Path, "metadata-badger")
		if err != nil {
			return nil, err
		}
		return metacache.NewBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want memory, sqlite or badger)", cfg.Cache.Backend)
	}
}

func storePath(configured, fallback string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return filesystem.GetDefaultPath(fallback)
}

func openCache(cfg *config.Config) (*metacache.Cache, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := opengraph.NewFetcher(cfg.FetcherConfig())
	cache, err := metacache.New(cfg.CacheConfig(), store, fetcher)
	if err != nil {
		store.Close()
		return nil, err
	}
	return cache, nil
}

func runCacheStats(cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	provider, ok := store.(metacache.StatsProvider)
	if !ok {
		fmt.Println("cache backend does not report statistics")
		return
	}

	stats, err := provider.Stats()
	if err != nil {
		slog.Error("Failed to read cache stats", "error", err)
		os.Exit(1)
	}

	for _, key := range []string{"total_entries", "failed_entries", "expired_entries"} {
		if v, ok := stats[key]; ok {
			fmt.Printf("%-16s %v\n", key, v)
		}
	}
}

func runCacheCleanup(cfg *config.Config) {
	store, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	provider, ok := store.(metacache.CleanupProvider)
	if !ok {
		fmt.Println("cache backend does not support cleanup")
		return
	}

	if err := provider.CleanupExpired(); err != nil {
		slog.Error("Cleanup failed", "error", err)
		os.Exit(1)
	}
	fmt.Println("expired entries removed")
}

func runCacheInvalidate(cfg *config.Config, url string) {
	cache, err := openCache(cfg)
	if err != nil {
		slog.Error("Failed to open metadata cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	if err := cache.Invalidate(url); err != nil {
		slog.Error("Invalidate failed", "url", url, "error", err)
		os.Exit(1)
	}
	fmt.Printf("invalidated %s\n", url)
}
