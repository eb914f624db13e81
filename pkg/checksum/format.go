package checksum

import (
	"strings"

	"github.com/lepinkainen/entity-forge/pkg/patterns"
)

// Format validators: shape checks against the pattern library, no check
// digit involved.

// UUID reports whether s is a canonically hyphenated UUID.
func UUID(s string) bool {
	return patterns.Lookup(patterns.UUID).MatchString(strings.TrimSpace(s))
}

// MACAddress reports whether s is a colon- or hyphen-separated MAC address.
func MACAddress(s string) bool {
	return patterns.Lookup(patterns.MAC).MatchString(strings.TrimSpace(s))
}

// IPv4 reports whether s is a dotted-quad IPv4 address.
func IPv4(s string) bool {
	return patterns.Lookup(patterns.IPv4).MatchString(strings.TrimSpace(s))
}

// IPv6 reports whether s is a fully expanded IPv6 address.
func IPv6(s string) bool {
	return patterns.Lookup(patterns.IPv6).MatchString(strings.TrimSpace(s))
}

// HexColor reports whether s is a #rgb or #rrggbb color value.
func HexColor(s string) bool {
	return patterns.Lookup(patterns.HexColor).MatchString(strings.TrimSpace(s))
}
