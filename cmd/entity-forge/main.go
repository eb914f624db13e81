// Package main provides the CLI entry point for entity-forge.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/entity-forge/internal/config"
	"github.com/lepinkainen/entity-forge/pkg/extract"
	"github.com/lepinkainen/entity-forge/pkg/patterns"
	"github.com/lepinkainen/entity-forge/pkg/pipeline"
	"github.com/lepinkainen/entity-forge/pkg/preview"
	"github.com/lepinkainen/entity-forge/pkg/validate"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Extract struct {
		Text string `arg:"" optional:"" help:"Text to scan; stdin is read when omitted"`
		JSON bool   `help:"Emit entities as JSON" default:"false"`
	} `cmd:"extract" help:"Extract links, emails, phones, hashtags and mentions from text."`

	Validate struct {
		Kind   string   `arg:"" help:"Identifier kind (isbn, issn, iban, vin, luhn, ean13, upca, uuid, mac, ipv4, hex_color)"`
		Values []string `arg:"" help:"Values to validate"`
		JSON   bool     `help:"Emit results as JSON" default:"false"`
	} `cmd:"validate" help:"Validate identifiers against their checksum or format rules."`

	Process struct {
		Text string `arg:"" optional:"" help:"Text to process; stdin is read when omitted"`
		JSON bool   `help:"Emit the combined result as JSON" default:"false"`
	} `cmd:"process" help:"Extract entities and resolve link metadata."`

	Preview struct {
		Text string `arg:"" optional:"" help:"Text to process; stdin is read when omitted"`
	} `cmd:"preview" help:"Browse extraction results interactively."`

	Cache struct {
		Stats      struct{} `cmd:"stats" help:"Show cache entry counts."`
		Cleanup    struct{} `cmd:"cleanup" help:"Remove expired cache entries."`
		Invalidate struct {
			URL string `arg:"" help:"Link whose cache entry should be dropped"`
		} `cmd:"invalidate" help:"Drop one link's cached metadata."`
	} `cmd:"cache" help:"Inspect and maintain the metadata cache."`
}

func main() {
	ctx := kong.Parse(&CLI)

	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Patterns.File != "" {
		if err := patterns.Default().LoadFile(cfg.Patterns.File); err != nil {
			slog.Error("Failed to load pattern file", "file", cfg.Patterns.File, "error", err)
			os.Exit(1)
		}
	}

	switch {
	case strings.HasPrefix(ctx.Command(), "extract"):
		runExtract()
	case strings.HasPrefix(ctx.Command(), "validate"):
		runValidate()
	case strings.HasPrefix(ctx.Command(), "process"):
		runProcess(cfg)
	case strings.HasPrefix(ctx.Command(), "preview"):
		runPreview(cfg)
	case strings.HasPrefix(ctx.Command(), "cache stats"):
		runCacheStats(cfg)
	case strings.HasPrefix(ctx.Command(), "cache cleanup"):
		runCacheCleanup(cfg)
	case strings.HasPrefix(ctx.Command(), "cache invalidate"):
		runCacheInvalidate(cfg, CLI.Cache.Invalidate.URL)
	default:
		panic(ctx.Command())
	}
}

// readInput returns the positional text or, when empty, all of stdin.
func readInput(text string) string {
	if text != "" {
		return text
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		slog.Error("Failed to read stdin", "error", err)
		os.Exit(1)
	}
	return string(data)
}

func runExtract() {
	text := readInput(CLI.Extract.Text)
	entities := extract.Extract(text)

	if CLI.Extract.JSON {
		emitJSON(entities)
		return
	}

	for _, e := range entities {
		fmt.Printf("%-8s %q [%d:%d]\n", e.Kind, e.Raw, e.Start, e.End)
	}
}

func runValidate() {
	kind, err := validate.ParseKind(CLI.Validate.Kind)
	if err != nil {
		slog.Error("Unknown identifier kind", "kind", CLI.Validate.Kind, "error", err)
		os.Exit(1)
	}

	results, err := validate.BatchValidate(kind, CLI.Validate.Values)
	if err != nil {
		slog.Error("Validation failed", "error", err)
		os.Exit(1)
	}

	if CLI.Validate.JSON {
		emitJSON(results)
		return
	}

	exitCode := 0
	for _, res := range results {
		status := "valid"
		if !res.Valid {
			status = "INVALID"
			exitCode = 1
		}
		fmt.Printf("%-8s %-30s %s\n", res.KindName, res.Input, status)
	}
	os.Exit(exitCode)
}

func runProcess(cfg *config.Config) {
	text := readInput(CLI.Process.Text)

	processor, cleanup := buildProcessor(cfg)
	defer cleanup()

	result, err := processor.Process(context.Background(), text)
	if err != nil {
		slog.Error("Processing failed", "error", err)
		os.Exit(1)
	}

	if CLI.Process.JSON {
		emitJSON(result)
		return
	}

	for _, e := range result.Entities {
		fmt.Printf("%-8s %q [%d:%d]\n", e.Kind, e.Raw, e.Start, e.End)
	}
	for link, md := range result.LinkMetadata {
		if md.Failed() {
			fmt.Printf("metadata %s: fetch failed: %s\n", link, md.Error())
			continue
		}
		fmt.Printf("metadata %s: %s\n", link, md["title"])
	}
}

func runPreview(cfg *config.Config) {
	text := readInput(CLI.Preview.Text)

	processor, cleanup := buildProcessor(cfg)
	defer cleanup()

	result, err := processor.Process(context.Background(), text)
	if err != nil {
		slog.Error("Processing failed", "error", err)
		os.Exit(1)
	}

	if err := preview.Run(result.Entities, result.LinkMetadata); err != nil {
		slog.Error("Preview failed", "error", err)
		os.Exit(1)
	}
}

func buildProcessor(cfg *config.Config) (*pipeline.Processor, func()) {
	cache, err := openCache(cfg)
	if err != nil {
		slog.Error("Failed to open metadata cache", "error", err)
		os.Exit(1)
	}

	processor := pipeline.NewProcessor(nil, cache, cfg.Fetch.MaxConcurrent)
	return processor, func() {
		if err := cache.Close(); err != nil {
			slog.Error("Failed to close cache", "error", err)
		}
	}
}

func emitJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to encode JSON", "error", err)
		os.Exit(1)
	}
}
