// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/internal/helper/helpertest"
	"github.com/mscloader/nexussso/pkg/errutil"
)

const validateResponse = `{
    "user_id": 1234567,
    "key": "abc",
    "name": "Alice",
    "is_premium?": true,
    "is_supporter?": false,
    "email": "alice@example.com",
    "profile_url": "https://avatars.nexusmods.com/1234567/100"
}`

func TestParseUserInfo(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		want     *UserInfo
		wantErrs int
	}{
		{
			name:   "full response",
			output: helpertest.Stream(validateResponse),
			want: &UserInfo{
				Name:          "Alice",
				ProfilePicURL: "https://avatars.nexusmods.com/1234567/100",
				IsPremium:     true,
				IsSupporter:   false,
			},
		},
		{
			name:   "name and premium only",
			output: helpertest.Stream(`"name": "Alice",`, `"is_premium?": true,`),
			want:   &UserInfo{Name: "Alice", IsPremium: true},
		},
		{
			name:   "supporter",
			output: helpertest.Stream(`"name": "Bob",`, `"is_supporter?": true,`, `"is_premium?": false,`),
			want:   &UserInfo{Name: "Bob", IsSupporter: true},
		},
		{
			name:     "bad profile url line is skipped",
			output:   helpertest.Stream(`"name": "Alice",`, `"profile_url": nowhere,`, `"is_premium?": true,`),
			want:     &UserInfo{Name: "Alice", IsPremium: true},
			wantErrs: 1,
		},
		{
			name:     "empty name is reported and absent",
			output:   helpertest.Stream(`"name": "",`, `"is_premium?": true,`),
			want:     nil,
			wantErrs: 1,
		},
		{
			name:   "no name",
			output: helpertest.Stream(`"is_premium?": true,`),
			want:   nil,
		},
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name:   "last name wins",
			output: helpertest.Stream(`"name": "First",`, `"name": "Second",`),
			want:   &UserInfo{Name: "Second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := ParseUserInfo(tt.output)
			assert.Equal(t, tt.want, got)
			require.Len(t, errs, tt.wantErrs)
			for _, err := range errs {
				errutil.AssertErrorCode(t, err, "ACCOUNT_PARSE_FAILURE")
			}
		})
	}
}

func TestIsRejected(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"", true},
		{"\n", true},
		{"  \n\n", true},
		{`{"message": "Please provide a valid API Key"}`, true},
		{"Error: Unknown WebSocket error\n", true},
		{validateResponse, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRejected(tt.output), "output %q", tt.output)
	}
}

func TestMemberStatus(t *testing.T) {
	assert.Equal(t, StatusPremium, (&UserInfo{IsPremium: true}).MemberStatus())
	assert.Equal(t, StatusNonPremium, (&UserInfo{}).MemberStatus())

	var none *UserInfo
	assert.Equal(t, StatusNonPremium, none.MemberStatus())
}
