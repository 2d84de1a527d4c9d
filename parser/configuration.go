package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Configuration is a named group of parsers that run together over one scan,
// with a title and a short hint for the user.
type Configuration struct {
	Name    string
	Title   string
	Message string
	Parsers []Parser
}

// Match is one parsed field.
type Match struct {
	Parser string `json:"parser" yaml:"parser"`
	Value  string `json:"value" yaml:"value"`
}

var configurations = map[string]Configuration{
	"Raw": {
		Name: "Raw", Title: "Raw text",
		Message: "Returns all recognized text",
		Parsers: []Parser{Raw()},
	},
	"EMail": {
		Name: "EMail", Title: "E-mail",
		Message: "Finds an e-mail address",
		Parsers: []Parser{EMail()},
	},
	"Date": {
		Name: "Date", Title: "Date",
		Message: "Finds a calendar date",
		Parsers: []Parser{Date()},
	},
	"Amount": {
		Name: "Amount", Title: "Amount",
		Message: "Finds a monetary amount",
		Parsers: []Parser{Amount()},
	},
	"IBAN": {
		Name: "IBAN", Title: "IBAN",
		Message: "Finds a checksum-valid IBAN",
		Parsers: []Parser{IBAN()},
	},
	"VIN": {
		Name: "VIN", Title: "Vehicle identification number",
		Message: "Finds a 17 character VIN",
		Parsers: []Parser{VIN()},
	},
	"TopUp": {
		Name: "TopUp", Title: "Top-up code",
		Message: "Finds a prepaid top-up code",
		Parsers: []Parser{TopUp("")},
	},
	"PhotoPay": {
		Name: "PhotoPay", Title: "Payment slip",
		Message: "Finds total amount, tax amount and IBAN",
		Parsers: []Parser{NamedAmount("TotalAmount"), taxAmount(), IBAN()},
	},
}

// taxAmount looks for an amount on the same line as a tax label.
func taxAmount() Parser {
	return mustRegex("Tax", `(?i)(?:tax|vat)[^\n]*?(\d+[.,]\d{2})`)
}

// Lookup returns the configuration registered under name (case-insensitive).
func Lookup(name string) (Configuration, error) {
	for k, cfg := range configurations {
		if strings.EqualFold(k, name) {
			return cfg, nil
		}
	}
	return Configuration{}, fmt.Errorf("unknown scan configuration %q (available: %s)",
		name, strings.Join(Names(), ", "))
}

// Names returns the registered configuration names in sorted order.
func Names() []string {
	out := make([]string, 0, len(configurations))
	for k := range configurations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Configurations returns every registered configuration, sorted by name.
func Configurations() []Configuration {
	names := Names()
	out := make([]Configuration, len(names))
	for i, name := range names {
		out[i] = configurations[name]
	}
	return out
}

// Run applies every parser of cfg to text and returns the fields that were
// found, in parser order.
func Run(cfg Configuration, text string) []Match {
	var out []Match
	for _, p := range cfg.Parsers {
		if v, ok := p.Parse(text); ok {
			out = append(out, Match{Parser: p.Name(), Value: v})
		}
	}
	return out
}
