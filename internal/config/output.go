package config

import (
	"fmt"
	"strings"
)

// Outputs selects the summarized output files.
type Outputs struct {
	CSV         bool
	Spreadsheet bool
	Transport   bool
}

// Any reports whether at least one output is selected.
func (o Outputs) Any() bool {
	return o.CSV || o.Spreadsheet || o.Transport
}

// String lists the selected tokens.
func (o Outputs) String() string {
	var tokens []string
	if o.CSV {
		tokens = append(tokens, "csv")
	}
	if o.Spreadsheet {
		tokens = append(tokens, "xl")
	}
	if o.Transport {
		tokens = append(tokens, "retigo")
	}
	if len(tokens) == 0 {
		return "none"
	}
	return strings.Join(tokens, " ")
}

// ParseOutputs reads tokens from none, csv, xl (xlsx), retigo, all. Tokens
// may also be packed into one value separated by blanks or commas.
func ParseOutputs(values []string) (Outputs, error) {
	var out Outputs
	var tokens []string
	for _, value := range values {
		tokens = append(tokens, strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	none := false
	for _, token := range tokens {
		switch strings.ToLower(token) {
		case "none":
			none = true
		case "csv":
			out.CSV = true
		case "xl", "xlsx", "excel":
			out.Spreadsheet = true
		case "retigo":
			out.Transport = true
		case "all":
			out = Outputs{CSV: true, Spreadsheet: true, Transport: true}
		default:
			return Outputs{}, fmt.Errorf("%w: %q", ErrInvalidOutputFormat, token)
		}
	}
	if none && out.Any() {
		return Outputs{}, fmt.Errorf("%w: none cannot be combined with other formats", ErrInvalidOutputFormat)
	}
	return out, nil
}

// TransportPolicy decides what the transport output does with rows that lack
// identity or coordinates.
type TransportPolicy string

const (
	TransportDrop TransportPolicy = "drop"
	TransportFail TransportPolicy = "fail"
	TransportEmit TransportPolicy = "emit"
)

// ParseTransportPolicy validates a policy name.
func ParseTransportPolicy(value string) (TransportPolicy, error) {
	switch policy := TransportPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return TransportDrop, nil
	case TransportDrop, TransportFail, TransportEmit:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransportPolicy, value)
	}
}
