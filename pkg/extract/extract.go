// Package extract scans free-form text for structured entities: links,
// emails, phone numbers, hashtags and mentions. Extraction is a pure
// computation over complete text; no network or disk access.
package extract

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/entity-forge/pkg/patterns"
)

// Kind classifies an extracted entity.
type Kind int

// Entity kinds, in scan order.
const (
	Link Kind = iota
	Email
	Phone
	Hashtag
	Mention
)

var kindNames = map[Kind]string{
	Link:    "link",
	Email:   "email",
	Phone:   "phone",
	Hashtag: "hashtag",
	Mention: "mention",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Entity is one occurrence of a pattern in the source text. Immutable
// once produced; Start and End are byte offsets into the scanned text.
type Entity struct {
	Kind  Kind   `json:"kind"`
	Raw   string `json:"raw"`
	Start int    `json:"start"`
	End   int    `json:"end"`

	token string
}

// Token returns the bare token for hashtags and mentions (without the
// sigil) and the raw text for every other kind.
func (e Entity) Token() string {
	if e.token != "" {
		return e.token
	}
	return e.Raw
}

// kindMatchers pairs each entity kind with its pattern library name. The
// slice order fixes the cross-kind merge order, keeping output stable for
// identical input.
var kindMatchers = []struct {
	kind    Kind
	pattern string
}{
	{Link, patterns.URL},
	{Email, patterns.Email},
	{Phone, patterns.Phone},
	{Hashtag, patterns.Hashtag},
	{Mention, patterns.Mention},
}

// Extractor scans text using a pattern library. The zero-cost way to get
// one backed by the default library is Extract.
type Extractor struct {
	lib *patterns.Library
}

// NewExtractor creates an extractor over the given library.
func NewExtractor(lib *patterns.Library) *Extractor {
	if lib == nil {
		lib = patterns.Default()
	}
	return &Extractor{lib: lib}
}

// Extract scans text with the default pattern library.
func Extract(text string) []Entity {
	return NewExtractor(nil).Extract(text)
}

// Extract returns all entities found in text. Each kind's matches appear
// in left-to-right order; duplicates are retained. The returned slice is
// finite and freely re-iterable.
func (x *Extractor) Extract(text string) []Entity {
	if text == "" {
		return nil
	}

	var entities []Entity
	for _, km := range kindMatchers {
		m, ok := x.lib.Lookup(km.pattern)
		if !ok {
			continue
		}
		for _, match := range m.FindAll(text) {
			e := Entity{
				Kind:  km.kind,
				Raw:   match.Raw,
				Start: match.Start,
				End:   match.End,
			}
			if match.Token != match.Raw {
				e.token = match.Token
			}
			if km.kind == Link {
				e = trimLinkPunctuation(e)
			}
			entities = append(entities, e)
		}
	}
	return entities
}

// Links returns the raw text of every Link entity in first-occurrence
// order with duplicates removed. This is the key set the metadata layer
// resolves.
func Links(entities []Entity) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, e := range entities {
		if e.Kind != Link {
			continue
		}
		if _, dup := seen[e.Raw]; dup {
			continue
		}
		seen[e.Raw] = struct{}{}
		links = append(links, e.Raw)
	}
	return links
}

// trimLinkPunctuation drops trailing sentence punctuation that the URL
// pattern greedily swallows ("see https://example.com." is a sentence,
// not a URL ending in a dot).
func trimLinkPunctuation(e Entity) Entity {
	trimmed := strings.TrimRight(e.Raw, ".,;:!?)]}'\"")
	if trimmed == e.Raw {
		return e
	}
	e.End -= len(e.Raw) - len(trimmed)
	e.Raw = trimmed
	return e
}
