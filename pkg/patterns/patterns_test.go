package patterns

import (
	"strings"
	"testing"
)

func TestLibraryRegister(t *testing.T) {
	lib := NewLibrary()

	if err := lib.Register("ticket", `[A-Z]+-\d+`); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := lib.Register("ticket", `\d+`); err == nil {
		t.Error("expected error for duplicate name, got nil")
	}

	if err := lib.Register(URL, `.*`); err == nil {
		t.Error("expected error when shadowing a built-in, got nil")
	}

	if err := lib.Register("broken", `[unclosed`); err == nil {
		t.Error("expected error for invalid expression, got nil")
	}
}

func TestLibraryFreezesOnLookup(t *testing.T) {
	lib := NewLibrary()

	if _, ok := lib.Lookup(Email); !ok {
		t.Fatal("built-in email matcher missing")
	}

	err := lib.Register("late", `\d+`)
	if err == nil {
		t.Fatal("expected registration after lookup to fail")
	}
	if !strings.Contains(err.Error(), "frozen") {
		t.Errorf("error should mention frozen library, got: %v", err)
	}
}

func TestLibraryLookupUnknown(t *testing.T) {
	lib := NewLibrary()
	if _, ok := lib.Lookup("no-such-pattern"); ok {
		t.Error("lookup of unknown name should report not found")
	}
}

func TestBuiltinMatchString(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		expected bool
	}{
		{"uuid valid", UUID, "550e8400-e29b-41d4-a716-446655440000", true},
		{"uuid not anchored match", UUID, "x550e8400-e29b-41d4-a716-446655440000", false},
		{"mac colons", MAC, "00:1a:2b:3c:4d:5e", true},
		{"mac hyphens", MAC, "00-1A-2B-3C-4D-5E", true},
		{"mac mixed garbage", MAC, "00:1a:2b:3c:4d:zz", false},
		{"ipv4 valid", IPv4, "10.0.0.255", true},
		{"ipv4 out of range", IPv4, "10.0.0.256", false},
		{"ipv6 full form", IPv6, "fe80:0000:0000:0000:0202:b3ff:fe1e:8329", true},
		{"hex color six", HexColor, "#1a2b3c", true},
		{"hex color three", HexColor, "#abc", true},
		{"hex color five", HexColor, "#abcde", false},
	}

	lib := NewLibrary()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := lib.Lookup(tt.pattern)
			if !ok {
				t.Fatalf("built-in %q missing", tt.pattern)
			}
			if got := m.MatchString(tt.input); got != tt.expected {
				t.Errorf("MatchString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindAllSpans(t *testing.T) {
	lib := NewLibrary()
	m, _ := lib.Lookup(Email)

	text := "mail a@b.io or c@d.io today"
	matches := m.FindAll(text)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	for i, match := range matches {
		if text[match.Start:match.End] != match.Raw {
			t.Errorf("match %d: span [%d,%d) yields %q, want %q",
				i, match.Start, match.End, text[match.Start:match.End], match.Raw)
		}
	}
	if matches[0].Raw != "a@b.io" || matches[1].Raw != "c@d.io" {
		t.Errorf("unexpected matches: %+v", matches)
	}
}

func TestFindAllHashtagToken(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		raw   string
		token string
		start int
	}{
		{
			name:  "hashtag at start of text",
			text:  "#golang is fun",
			raw:   "#golang",
			token: "golang",
			start: 0,
		},
		{
			name:  "hashtag after space",
			text:  "learning #golang today",
			raw:   "#golang",
			token: "golang",
			start: 9,
		},
	}

	lib := NewLibrary()
	m, _ := lib.Lookup(Hashtag)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := m.FindAll(tt.text)
			if len(matches) != 1 {
				t.Fatalf("expected 1 match, got %d", len(matches))
			}
			got := matches[0]
			if got.Raw != tt.raw || got.Token != tt.token || got.Start != tt.start {
				t.Errorf("got %+v, want raw=%q token=%q start=%d", got, tt.raw, tt.token, tt.start)
			}
			if tt.text[got.Start:got.End] != got.Raw {
				t.Errorf("span [%d,%d) does not cover raw text", got.Start, got.End)
			}
		})
	}
}

func TestMentionDoesNotMatchEmailLocalPart(t *testing.T) {
	lib := NewLibrary()
	m, _ := lib.Lookup(Mention)

	if matches := m.FindAll("write to alice@example.com"); len(matches) != 0 {
		t.Errorf("mention matcher fired inside an email address: %+v", matches)
	}

	matches := m.FindAll("ping @alice about this")
	if len(matches) != 1 || matches[0].Token != "alice" {
		t.Errorf("expected single mention of alice, got %+v", matches)
	}
}

func TestDefaultLookupPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown matcher name")
		}
	}()
	Lookup("definitely-not-registered")
}
