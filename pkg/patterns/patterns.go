// Package patterns holds the named matchers every other component uses.
// Matchers are registered at startup and the library freezes on first
// lookup, so no component can inline a divergent copy of a pattern.
package patterns

import (
	"fmt"
	"regexp"
	"sync"
)

// Names of the built-in matchers.
const (
	URL      = "url"
	Email    = "email"
	Phone    = "phone"
	Hashtag  = "hashtag"
	Mention  = "mention"
	UUID     = "uuid"
	MAC      = "mac"
	IPv4     = "ipv4"
	IPv6     = "ipv6"
	HexColor = "hex_color"
)

// Built-in pattern expressions. Hashtag and mention require a non-word
// character (or start of text) before the sigil so the local part of an
// email address never matches; the token itself is the second capture group.
var builtins = map[string]string{
	URL:      `https?://[^\s<>"'` + "`" + `]+`,
	Email:    `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
	Phone:    `\+?[0-9][0-9()./\s-]{5,}[0-9]`,
	Hashtag:  `(^|[^\w#])#(\w+)`,
	Mention:  `(^|[^\w@])@(\w+)`,
	UUID:     `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`,
	MAC:      `^(?:[0-9a-fA-F]{2}[:-]){5}[0-9a-fA-F]{2}$`,
	IPv4:     `^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`,
	IPv6:     `^(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`,
	HexColor: `^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`,
}

// tokenGroup maps matcher names to the capture group holding the bare
// token, for matchers whose expression includes lookbehind-style context.
var tokenGroup = map[string]int{
	Hashtag: 2,
	Mention: 2,
}

// Matcher is a compiled named pattern.
type Matcher struct {
	Name  string
	re    *regexp.Regexp
	group int // submatch index of the token, 0 = whole match
}

// MatchString reports whether the whole input matches the pattern.
func (m *Matcher) MatchString(s string) bool {
	return m.re.MatchString(s)
}

// Match is one occurrence of a pattern in a larger text.
type Match struct {
	Raw   string // matched text including any sigil
	Token string // bare token for sigil patterns, otherwise same as Raw
	Start int    // byte offset of Raw in the scanned text
	End   int
}

// FindAll returns all non-overlapping occurrences in left-to-right order.
func (m *Matcher) FindAll(text string) []Match {
	idx := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(idx))
	for _, loc := range idx {
		start, end := loc[0], loc[1]
		token := text[start:end]
		if m.group > 0 && 2*m.group+1 < len(loc) && loc[2*m.group] >= 0 {
			// Context group precedes the token; the reported span starts
			// at the sigil, not at the context character.
			token = text[loc[2*m.group]:loc[2*m.group+1]]
			start = loc[2*m.group] - 1
			end = loc[2*m.group+1]
		}
		matches = append(matches, Match{
			Raw:   text[start:end],
			Token: token,
			Start: start,
			End:   end,
		})
	}
	return matches
}

// Library is a registry of named matchers. Registration is only allowed
// before the first lookup; after that the table is closed.
type Library struct {
	mu       sync.RWMutex
	frozen   bool
	matchers map[string]*Matcher
}

// NewLibrary creates a library pre-populated with the built-in matchers.
func NewLibrary() *Library {
	l := &Library{matchers: make(map[string]*Matcher)}
	for name, expr := range builtins {
		// Built-ins are compile-tested, a failure here is a programmer error.
		m := &Matcher{Name: name, re: regexp.MustCompile(expr), group: tokenGroup[name]}
		l.matchers[name] = m
	}
	return l
}

// Register adds a named matcher. It fails if the library is frozen or the
// name is already taken.
func (l *Library) Register(name, expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("pattern %q does not compile: %w", name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return fmt.Errorf("pattern library is frozen, cannot register %q", name)
	}
	if _, exists := l.matchers[name]; exists {
		return fmt.Errorf("pattern %q is already registered", name)
	}

	l.matchers[name] = &Matcher{Name: name, re: re}
	return nil
}

// Lookup returns the matcher for name. The first lookup freezes the
// library against further registration.
func (l *Library) Lookup(name string) (*Matcher, bool) {
	l.mu.Lock()
	l.frozen = true
	m, ok := l.matchers[name]
	l.mu.Unlock()
	return m, ok
}

// Names returns all registered matcher names in unspecified order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.matchers))
	for name := range l.matchers {
		names = append(names, name)
	}
	return names
}

var (
	defaultLibrary     *Library
	defaultLibraryOnce sync.Once
)

// Default returns the shared library instance.
func Default() *Library {
	defaultLibraryOnce.Do(func() {
		defaultLibrary = NewLibrary()
	})
	return defaultLibrary
}

// Lookup fetches a matcher from the default library. Missing built-ins are
// a programmer error, so this panics rather than returning an error.
func Lookup(name string) *Matcher {
	m, ok := Default().Lookup(name)
	if !ok {
		panic(fmt.Sprintf("patterns: unknown matcher %q", name))
	}
	return m
}
