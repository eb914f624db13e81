// Package checksum implements the check-digit algorithms used to validate
// domain identifiers. Every validator is a pure function: malformed input
// yields false, never a panic or an error.
package checksum

import "strings"

// NormalizeDigits strips everything except ASCII digits.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeISBN strips everything except digits and X, uppercasing x.
func NormalizeISBN(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// NormalizeAlnum strips whitespace and separators and uppercases the rest.
// Used for IBAN and VIN style identifiers.
func NormalizeAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// Luhn validates a payment-card-style number: from the rightmost digit,
// every second digit going left is doubled (minus 9 when the double
// exceeds 9) and the total must be divisible by 10.
func Luhn(s string) bool {
	digits := NormalizeDigits(s)
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ISBN validates both ISBN-10 (mod 11, X as 10) and ISBN-13 (GS1 weights
// 1,3). Any other normalized length is simply invalid.
func ISBN(s string) bool {
	isbn := NormalizeISBN(s)
	switch len(isbn) {
	case 10:
		sum := 0
		for i := 0; i < 10; i++ {
			var v int
			switch {
			case isbn[i] == 'X':
				v = 10
			default:
				v = int(isbn[i] - '0')
			}
			sum += v * (10 - i)
		}
		return sum%11 == 0
	case 13:
		return gs1Valid(isbn, 1)
	default:
		return false
	}
}

// ISSN validates an 8-character serial number: weighted sum over the first
// 7 digits with weights 8..2, check character (11-sum)%11 with 10 as X.
func ISSN(s string) bool {
	issn := strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	if len(issn) != 8 {
		return false
	}

	sum := 0
	for i := 0; i < 7; i++ {
		if issn[i] < '0' || issn[i] > '9' {
			return false
		}
		sum += int(issn[i]-'0') * (8 - i)
	}

	check := (11 - sum%11) % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	return issn[7] == want
}

// IBAN validates an account number per ISO 13616: the first four
// characters move to the end, letters map to 10..35, and the resulting
// numeral mod 97 must equal 1. Any character outside [0-9A-Z] fails.
func IBAN(s string) bool {
	iban := NormalizeAlnum(s)
	if len(iban) < 5 || len(iban) > 34 {
		return false
	}

	rearranged := iban[4:] + iban[:4]
	rem := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			rem = (rem*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			// Letters expand to two digits, 10..35.
			rem = (rem*100 + int(c-'A') + 10) % 97
		default:
			return false
		}
	}
	return rem == 1
}

// vinValues maps VIN characters to their numeric values per ISO 3779.
// I, O and Q are not valid VIN characters and have no entry.
var vinValues = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
}

// vinWeights is the fixed position-weight vector; position 9 (the check
// digit itself) has weight 0.
var vinWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// VIN validates a 17-character vehicle identification number.
func VIN(s string) bool {
	vin := strings.ToUpper(strings.TrimSpace(s))
	if len(vin) != 17 {
		return false
	}

	sum := 0
	for i := 0; i < 17; i++ {
		v, ok := vinValues[vin[i]]
		if !ok {
			return false
		}
		sum += v * vinWeights[i]
	}

	check := sum % 11
	want := byte('0' + check)
	if check == 10 {
		want = 'X'
	}
	return vin[8] == want
}

// EAN13 validates a 13-digit GS1 article number (weights 1,3).
func EAN13(s string) bool {
	digits := NormalizeDigits(s)
	if len(digits) != 13 {
		return false
	}
	return gs1Valid(digits, 1)
}

// UPCA validates a 12-digit UPC-A code (weights 3,1).
func UPCA(s string) bool {
	digits := NormalizeDigits(s)
	if len(digits) != 12 {
		return false
	}
	return gs1Valid(digits, 3)
}

// gs1Valid checks the standard GS1 check digit: alternating weights over
// all but the last digit, check = (10 - sum%10) % 10. firstWeight is 1
// for EAN-13 and 3 for UPC-A.
func gs1Valid(digits string, firstWeight int) bool {
	sum := 0
	weight := firstWeight
	for i := 0; i < len(digits)-1; i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
		sum += int(digits[i]-'0') * weight
		weight = 4 - weight // alternate 1 <-> 3
	}

	last := digits[len(digits)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}
