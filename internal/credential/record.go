// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package credential

import (
	"strings"

	"github.com/samber/oops"
)

// Record field names, in the order they appear.
const (
	fieldAPIKey = "apiKey"
	fieldToken  = "token"
)

// FormatRecord renders c in the storage record format:
//
//	apiKey: <value>
//	token: <value>
func FormatRecord(c Credentials) string {
	return fieldAPIKey + ": " + c.APIKey + "\n" + fieldToken + ": " + c.Token
}

// CheckRecord reports whether c survives FormatRecord and ParseRecord
// unchanged. Values holding '"', ',' or line breaks, or with surrounding
// whitespace, would be altered and are rejected.
func CheckRecord(c Credentials) error {
	for _, f := range []struct{ name, value string }{
		{fieldAPIKey, c.APIKey},
		{fieldToken, c.Token},
	} {
		if f.value != Normalize(f.value) || strings.ContainsAny(f.value, "\r\n") {
			return oops.Code("CREDENTIAL_RECORD_MALFORMED").
				With("field", f.name).
				Errorf("credential value cannot be stored in a record")
		}
	}
	return nil
}

// ParseRecord reads credentials from the first two lines of data. Both the
// storage record and the helper's login output use this layout, the latter
// with quoted values and trailing commas:
//
//	apiKey: "abc",
//	token: "xyz",
//
// Each value is everything after the first ':' with quotes and commas removed
// and surrounding whitespace trimmed.
func ParseRecord(data string) (Credentials, error) {
	lines := strings.Split(data, "\n")
	if len(lines) < 2 {
		return Credentials{}, oops.Code("CREDENTIAL_RECORD_MALFORMED").
			With("lines", len(lines)).
			Errorf("credential record needs two lines")
	}

	apiKey, err := recordValue(lines[0], 1)
	if err != nil {
		return Credentials{}, err
	}
	token, err := recordValue(lines[1], 2)
	if err != nil {
		return Credentials{}, err
	}

	c := Credentials{APIKey: apiKey, Token: token}
	if c.IsZero() {
		return Credentials{}, oops.Code("CREDENTIAL_RECORD_MALFORMED").Errorf("credential record has an empty api key")
	}
	return c, nil
}

func recordValue(line string, lineNo int) (string, error) {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", oops.Code("CREDENTIAL_RECORD_MALFORMED").
			With("line", lineNo).
			Errorf("credential record line has no ':' separator")
	}
	return Normalize(value), nil
}

// Normalize strips every '"' and ',' from s and trims surrounding whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}
