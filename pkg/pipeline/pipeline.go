// Package pipeline composes extraction and metadata resolution into the
// single public entry point: process a text, get its entities plus the
// metadata for every link found.
package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lepinkainen/entity-forge/pkg/extract"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
)

// Result is the combined outcome for one text input. LinkMetadata is
// keyed by the raw link text as it appeared in the input.
type Result struct {
	Entities     []extract.Entity             `json:"entities"`
	LinkMetadata map[string]metacache.Metadata `json:"link_metadata"`
}

// Processor wires the extraction engine to the metadata cache.
type Processor struct {
	extractor     *extract.Extractor
	cache         *metacache.Cache
	maxConcurrent int
}

// NewProcessor creates a processor. cache may be nil, in which case links
// are extracted but no metadata is resolved.
func NewProcessor(extractor *extract.Extractor, cache *metacache.Cache, maxConcurrent int) *Processor {
	if extractor == nil {
		extractor = extract.NewExtractor(nil)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Processor{
		extractor:     extractor,
		cache:         cache,
		maxConcurrent: maxConcurrent,
	}
}

// Process extracts all entities from text and resolves metadata for each
// distinct link. One bad link never fails the whole call: its metadata is
// either an error-valued entry from the cache or absent, and every other
// entity is still returned.
func (p *Processor) Process(ctx context.Context, text string) (*Result, error) {
	result := &Result{
		Entities:     p.extractor.Extract(text),
		LinkMetadata: make(map[string]metacache.Metadata),
	}

	links := extract.Links(result.Entities)
	if p.cache == nil || len(links) == 0 {
		return result, nil
	}

	type linkResult struct {
		link string
		md   metacache.Metadata
	}

	results := make(chan linkResult, len(links))
	semaphore := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	for _, link := range links {
		wg.Add(1)
		go func(link string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			md, err := p.cache.Get(ctx, link)
			if err != nil {
				// Unusable link or caller cancellation; the rest of
				// the result is still delivered.
				slog.Debug("skipping link metadata", "link", link, "error", err)
				return
			}
			results <- linkResult{link: link, md: md}
		}(link)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.LinkMetadata[res.link] = res.md
	}

	return result, nil
}
