// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package account

import (
	"strings"

	"github.com/samber/oops"
)

// Member status labels.
const (
	StatusPremium    = "PREMIUM"
	StatusNonPremium = "NON-PREMIUM"
)

// Keys recognized in the user info response.
const (
	keyName       = "name"
	keyProfileURL = "profile_url"
	keyPremium    = "is_premium?"
	keySupporter  = "is_supporter?"
)

// UserInfo describes the logged-in NexusMods account. A nil *UserInfo means
// no verified account.
type UserInfo struct {
	Name          string `json:"name" yaml:"name"`
	ProfilePicURL string `json:"profile_pic_url,omitempty" yaml:"profile_pic_url,omitempty"`
	IsPremium     bool   `json:"is_premium" yaml:"is_premium"`
	IsSupporter   bool   `json:"is_supporter" yaml:"is_supporter"`
}

// MemberStatus returns PREMIUM or NON-PREMIUM.
func (u *UserInfo) MemberStatus() string {
	if u != nil && u.IsPremium {
		return StatusPremium
	}
	return StatusNonPremium
}

// ParseUserInfo reads the helper's user info response line by line. Lines
// that fail extraction are skipped and reported in the returned slice. The
// result is nil when no name was found.
func ParseUserInfo(output string) (*UserInfo, []error) {
	var (
		info UserInfo
		errs []error
	)

	for i, line := range strings.Split(output, "\n") {
		rawKey, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		switch normalize(rawKey) {
		case keyName:
			parts := strings.Split(line, ":")
			name := normalize(parts[1])
			if name == "" {
				errs = append(errs, parseFailure(i+1, keyName, "empty value"))
				continue
			}
			info.Name = name
		case keyProfileURL:
			parts := strings.SplitN(line, ":", 3)
			if len(parts) < 3 {
				errs = append(errs, parseFailure(i+1, keyProfileURL, "value is not a url"))
				continue
			}
			info.ProfilePicURL = normalize("https:" + parts[2])
		case keyPremium:
			info.IsPremium = strings.Contains(line, "true")
		case keySupporter:
			info.IsSupporter = strings.Contains(line, "true")
		}
	}

	if info.Name == "" {
		return nil, errs
	}
	return &info, errs
}

// IsRejected reports whether a response means the API key was not accepted.
func IsRejected(output string) bool {
	return strings.TrimSpace(output) == "" ||
		strings.Contains(output, `"message": "Please provide a valid API Key"`) ||
		strings.Contains(output, "Unknown WebSocket error")
}

func parseFailure(line int, key, reason string) error {
	return oops.Code("ACCOUNT_PARSE_FAILURE").
		With("line", line).
		With("key", key).
		Errorf("cannot extract %s: %s", key, reason)
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}
