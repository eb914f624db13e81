package preview

import (
	"strings"
	"testing"

	"github.com/lepinkainen/entity-forge/pkg/extract"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
)

func TestFormatListLine(t *testing.T) {
	e := extract.Entity{Kind: extract.Link, Raw: "https://example.com/"}
	line := formatListLine(0, e)
	if !strings.Contains(line, "1.") || !strings.Contains(line, "link") || !strings.Contains(line, e.Raw) {
		t.Errorf("list line = %q", line)
	}

	long := extract.Entity{Kind: extract.Link, Raw: "https://example.com/" + strings.Repeat("x", 100)}
	line = formatListLine(1, long)
	if !strings.Contains(line, "...") {
		t.Errorf("long raw text not truncated: %q", line)
	}
	if strings.Contains(line, long.Raw) {
		t.Errorf("full raw text leaked into list line: %q", line)
	}
}

func TestFormatDetail(t *testing.T) {
	link := extract.Entity{Kind: extract.Link, Raw: "https://example.com/", Start: 4, End: 24}
	metadata := map[string]metacache.Metadata{
		"https://example.com/": {"title": "Example", "site_name": "example.com"},
	}

	detail := formatDetail(link, metadata)
	for _, want := range []string{"LINK", "https://example.com/", "4", "24", "Example", "example.com"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q:\n%s", want, detail)
		}
	}
}

func TestFormatDetailFailedFetch(t *testing.T) {
	link := extract.Entity{Kind: extract.Link, Raw: "https://down.example/"}
	metadata := map[string]metacache.Metadata{
		"https://down.example/": {metacache.ErrorKey: "connection refused"},
	}

	detail := formatDetail(link, metadata)
	if !strings.Contains(detail, "connection refused") {
		t.Errorf("detail does not surface the fetch error:\n%s", detail)
	}
}

func TestFormatDetailNonLink(t *testing.T) {
	e := extract.Entity{Kind: extract.Hashtag, Raw: "#golang", Start: 0, End: 7}
	detail := formatDetail(e, nil)
	if !strings.Contains(detail, "HASHTAG") || !strings.Contains(detail, "#golang") {
		t.Errorf("detail = %q", detail)
	}
	if strings.Contains(detail, "Metadata") {
		t.Error("non-link detail should not carry a metadata section")
	}
}
