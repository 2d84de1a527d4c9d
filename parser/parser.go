// Package parser extracts typed fields (dates, amounts, IBANs, e-mail
// addresses, top-up codes, regex matches) from linearized OCR text, and groups
// parsers into named scan configurations.
package parser

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Parser extracts a single field from OCR text.
type Parser interface {
	Name() string
	// Parse returns the normalized value of the first occurrence of the field.
	Parse(text string) (string, bool)
}

// ---- raw -------------------------------------------------------------------

type rawParser struct{}

// Raw returns the text itself with surrounding whitespace removed.
func Raw() Parser { return rawParser{} }

func (rawParser) Name() string { return "Raw" }

func (rawParser) Parse(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, text != ""
}

// ---- regex -----------------------------------------------------------------

type regexParser struct {
	name string
	re   *regexp.Regexp
}

// Regex returns a parser yielding the first match of pattern. When the pattern
// has a capture group, the first group is returned instead of the whole match.
func Regex(name, pattern string) (Parser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %s pattern: %w", name, err)
	}
	return &regexParser{name: name, re: re}, nil
}

func mustRegex(name, pattern string) Parser {
	p, err := Regex(name, pattern)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *regexParser) Name() string { return p.name }

func (p *regexParser) Parse(text string) (string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

// VIN matches vehicle identification numbers.
func VIN() Parser { return mustRegex("VIN", `[A-Z0-9]{17}`) }

// ---- e-mail ----------------------------------------------------------------

var emailRE = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

type emailParser struct{}

// EMail extracts the first e-mail address.
func EMail() Parser { return emailParser{} }

func (emailParser) Name() string { return "EMail" }

func (emailParser) Parse(text string) (string, bool) {
	m := emailRE.FindString(text)
	return m, m != ""
}

// ---- date ------------------------------------------------------------------

var (
	dmyRE = regexp.MustCompile(`\b(\d{1,2})[./\-](\d{1,2})[./\-](\d{4})\b`)
	ymdRE = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
)

type dateParser struct{}

// Date extracts the first valid calendar date and normalizes it to
// yyyy-mm-dd. Day-first and ISO orders are accepted.
func Date() Parser { return dateParser{} }

func (dateParser) Name() string { return "Date" }

func (dateParser) Parse(text string) (string, bool) {
	type candidate struct {
		at      int
		y, m, d string
	}
	var cands []candidate
	for _, m := range dmyRE.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, candidate{m[0], text[m[6]:m[7]], text[m[4]:m[5]], text[m[2]:m[3]]})
	}
	for _, m := range ymdRE.FindAllStringSubmatchIndex(text, -1) {
		cands = append(cands, candidate{m[0], text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]})
	}

	best := -1
	var out string
	for _, c := range cands {
		t, err := time.Parse("2006-1-2", c.y+"-"+c.m+"-"+c.d)
		if err != nil {
			continue
		}
		if best == -1 || c.at < best {
			best = c.at
			out = t.Format("2006-01-02")
		}
	}
	return out, best != -1
}

// ---- amount ----------------------------------------------------------------

var amountRE = regexp.MustCompile(`\d{1,3}(?:[.,']\d{3})*[.,]\d{2}\b|\d+[.,]\d{2}\b`)

type amountParser struct{ name string }

// Amount extracts the first monetary amount with two decimals and normalizes
// it to "1234.56".
func Amount() Parser { return amountParser{name: "Amount"} }

// NamedAmount is Amount under a different field name (e.g. "TotalAmount").
func NamedAmount(name string) Parser { return amountParser{name: name} }

func (p amountParser) Name() string { return p.name }

func (amountParser) Parse(text string) (string, bool) {
	m := amountRE.FindString(text)
	if m == "" {
		return "", false
	}
	return normalizeAmount(m), true
}

// normalizeAmount treats the last separator as the decimal point and drops the
// grouping separators before it.
func normalizeAmount(s string) string {
	dec := len(s) - 3
	var sb strings.Builder
	for i, r := range s {
		switch {
		case i == dec:
			sb.WriteByte('.')
		case unicode.IsDigit(r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ---- IBAN ------------------------------------------------------------------

var ibanRE = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]){11,30}\b`)

type ibanParser struct{}

// IBAN extracts the first candidate that passes the ISO 13616 mod-97 check.
func IBAN() Parser { return ibanParser{} }

func (ibanParser) Name() string { return "IBAN" }

func (ibanParser) Parse(text string) (string, bool) {
	for _, m := range ibanRE.FindAllString(strings.ToUpper(text), -1) {
		if iban, ok := ibanCandidate(m); ok {
			return iban, true
		}
	}
	return "", false
}

// ibanLengths is the ISO 13616 registry length per country code.
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16,
	"BG": 22, "BH": 22, "BR": 29, "CH": 21, "CR": 22, "CY": 28, "CZ": 24,
	"DE": 22, "DK": 18, "DO": 28, "EE": 20, "EG": 29, "ES": 24, "FI": 18,
	"FO": 18, "FR": 27, "GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27,
	"GT": 28, "HR": 21, "HU": 28, "IE": 22, "IL": 23, "IS": 26, "IT": 27,
	"JO": 30, "KW": 30, "KZ": 20, "LB": 28, "LI": 21, "LT": 20, "LU": 20,
	"LV": 21, "MC": 27, "MD": 24, "ME": 22, "MK": 19, "MR": 27, "MT": 31,
	"MU": 30, "NL": 18, "NO": 15, "PK": 24, "PL": 28, "PS": 29, "PT": 25,
	"QA": 29, "RO": 24, "RS": 22, "SA": 24, "SE": 24, "SI": 19, "SK": 24,
	"SM": 27, "TN": 24, "TR": 26, "UA": 29, "VG": 24, "XK": 20,
}

// ibanCandidate cuts a regex match down to the IBAN it starts with. The
// pattern is greedy and may run into the following words, so registered
// countries are cut at their fixed length. For other countries the shortest
// valid prefix ending at a group boundary (a space in the match, or its end)
// wins.
func ibanCandidate(match string) (string, bool) {
	iban := strings.ReplaceAll(match, " ", "")
	if n, ok := ibanLengths[iban[:2]]; ok {
		if len(iban) >= n && ValidIBAN(iban[:n]) {
			return iban[:n], true
		}
		return "", false
	}

	var bounds []int
	n := 0
	for _, r := range match {
		if r == ' ' {
			bounds = append(bounds, n)
			continue
		}
		n++
	}
	bounds = append(bounds, n)
	for _, b := range bounds {
		if b >= 15 && ValidIBAN(iban[:b]) {
			return iban[:b], true
		}
	}
	return "", false
}

// ValidIBAN reports whether iban (no spaces) has a valid mod-97 checksum.
func ValidIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	rearranged := iban[4:] + iban[:4]
	var digits strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			fmt.Fprintf(&digits, "%d", r-'A'+10)
		default:
			return false
		}
	}
	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

// ---- top-up ----------------------------------------------------------------

type topUpParser struct {
	re *regexp.Regexp
}

// TopUp extracts prepaid mobile top-up codes of the form *<prefix>*<digits>#.
// An empty prefix accepts any three-digit service prefix.
func TopUp(prefix string) Parser {
	p := `\d{3}`
	if prefix != "" {
		p = regexp.QuoteMeta(prefix)
	}
	return &topUpParser{re: regexp.MustCompile(`\*` + p + `\*(\d{12,18})#`)}
}

func (*topUpParser) Name() string { return "TopUp" }

func (p *topUpParser) Parse(text string) (string, bool) {
	m := p.re.FindString(strings.ReplaceAll(text, " ", ""))
	return m, m != ""
}
