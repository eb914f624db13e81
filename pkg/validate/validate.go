// Package validate dispatches identifier validation to the matching
// checksum or format algorithm. The kind set is closed; asking for a kind
// that does not exist is a caller bug and fails loudly, while bad input
// data only ever produces Valid=false.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lepinkainen/entity-forge/pkg/checksum"
)

// Kind identifies one validation algorithm.
type Kind int

// Supported identifier kinds.
const (
	ISBN Kind = iota
	ISSN
	IBAN
	VIN
	Luhn
	EAN13
	UPCA
	UUID
	MACAddress
	IPv4
	HexColor
)

var kindNames = map[Kind]string{
	ISBN:       "isbn",
	ISSN:       "issn",
	IBAN:       "iban",
	VIN:        "vin",
	Luhn:       "luhn",
	EAN13:      "ean13",
	UPCA:       "upca",
	UUID:       "uuid",
	MACAddress: "mac",
	IPv4:       "ipv4",
	HexColor:   "hex_color",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrUnknownKind is returned when a caller asks for a kind outside the
// closed set.
var ErrUnknownKind = errors.New("unknown identifier kind")

// ParseKind resolves a kind name as used on the CLI and in config files.
func ParseKind(name string) (Kind, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for kind, kn := range kindNames {
		if kn == want {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ErrorCode classifies a validation failure. Format and checksum problems
// are deliberately not distinguished.
type ErrorCode string

// CodeInvalid is the only failure code: the input did not validate.
const CodeInvalid ErrorCode = "invalid"

// Result is the outcome of validating one input. Produced fresh per call,
// never mutated.
type Result struct {
	Valid      bool      `json:"valid"`
	Kind       Kind      `json:"-"`
	KindName   string    `json:"kind"`
	Input      string    `json:"input"`
	Normalized string    `json:"normalized"`
	Code       ErrorCode `json:"code,omitempty"`
}

// entry pairs a validator with the normalization its algorithm expects.
type entry struct {
	normalize func(string) string
	check     func(string) bool
}

// dispatch is built once at package init; kinds form a closed set, so a
// missing entry can only be a programmer error.
var dispatch = map[Kind]entry{
	ISBN:       {checksum.NormalizeISBN, checksum.ISBN},
	ISSN:       {normalizeISSN, checksum.ISSN},
	IBAN:       {checksum.NormalizeAlnum, checksum.IBAN},
	VIN:        {normalizeUpper, checksum.VIN},
	Luhn:       {checksum.NormalizeDigits, checksum.Luhn},
	EAN13:      {checksum.NormalizeDigits, checksum.EAN13},
	UPCA:       {checksum.NormalizeDigits, checksum.UPCA},
	UUID:       {normalizeLower, checksum.UUID},
	MACAddress: {normalizeLower, checksum.MACAddress},
	IPv4:       {normalizeTrim, checksum.IPv4},
	HexColor:   {normalizeLower, checksum.HexColor},
}

func normalizeISSN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
}

func normalizeUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
func normalizeLower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func normalizeTrim(s string) string  { return strings.TrimSpace(s) }

// Validate runs the one validator for kind against input. The returned
// error is non-nil only for an unknown kind.
func Validate(kind Kind, input string) (Result, error) {
	e, ok := dispatch[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	res := Result{
		Kind:       kind,
		KindName:   kind.String(),
		Input:      input,
		Normalized: e.normalize(input),
	}
	res.Valid = e.check(input)
	if !res.Valid {
		res.Code = CodeInvalid
	}
	return res, nil
}

// BatchValidate validates every input against the same kind, preserving
// input order and never short-circuiting on failures.
func BatchValidate(kind Kind, inputs []string) ([]Result, error) {
	if _, ok := dispatch[kind]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	results := make([]Result, len(inputs))
	for i, input := range inputs {
		res, err := Validate(kind, input)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
