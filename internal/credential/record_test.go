// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package credential

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mscloader/nexussso/pkg/errutil"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Credentials
		wantErr bool
	}{
		{
			name: "storage record",
			data: "apiKey: abc\ntoken: xyz",
			want: Credentials{APIKey: "abc", Token: "xyz"},
		},
		{
			name: "helper login output",
			data: "apiKey: \"abc\",\ntoken: \"xyz\",\n\n",
			want: Credentials{APIKey: "abc", Token: "xyz"},
		},
		{
			name: "crlf and padding",
			data: "apiKey:   abc  \r\ntoken:\txyz\r\n",
			want: Credentials{APIKey: "abc", Token: "xyz"},
		},
		{
			name: "extra lines ignored",
			data: "apiKey: a\ntoken: b\nnoise: c",
			want: Credentials{APIKey: "a", Token: "b"},
		},
		{
			name: "empty token allowed",
			data: "apiKey: a\ntoken: ",
			want: Credentials{APIKey: "a"},
		},
		{name: "empty", data: "", wantErr: true},
		{name: "single line", data: "apiKey: a", wantErr: true},
		{name: "missing separator", data: "apiKey a\ntoken: b", wantErr: true},
		{name: "missing token separator", data: "apiKey: a\ntoken b", wantErr: true},
		{name: "empty api key", data: "apiKey: \"\",\ntoken: b", wantErr: true},
		{name: "end of stream only", data: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecord(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "CREDENTIAL_RECORD_MALFORMED")
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatRecord_ParsesBack(t *testing.T) {
	c := Credentials{APIKey: "key-123", Token: "tok-456"}
	assert.Equal(t, "apiKey: key-123\ntoken: tok-456", FormatRecord(c))

	got, err := ParseRecord(FormatRecord(c))
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCheckRecord(t *testing.T) {
	assert.NoError(t, CheckRecord(Credentials{APIKey: "key-123", Token: "tok:456"}))
	assert.NoError(t, CheckRecord(Credentials{}))
	for _, bad := range []Credentials{
		{APIKey: `"k"`},
		{APIKey: "k", Token: "a,b"},
		{APIKey: "k\tx\n"},
		{APIKey: "k", Token: "\tt"},
		{APIKey: "a\nb"},
	} {
		err := CheckRecord(bad)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "CREDENTIAL_RECORD_MALFORMED")
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "abc", Normalize(` "abc", `))
	assert.Equal(t, "a b", Normalize(`"a, b"`))
	assert.Equal(t, "", Normalize(`"",`))
}

func TestCredentials_NeverPrintSecrets(t *testing.T) {
	c := Credentials{APIKey: "super-secret", Token: "also-secret"}

	for _, s := range []string{c.String(), fmt.Sprintf("%v", c), fmt.Sprintf("%+v", c), fmt.Sprintf("%#v", c)} {
		assert.NotContains(t, s, "super-secret")
		assert.NotContains(t, s, "also-secret")
	}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("creds", "credentials", c)
	assert.NotContains(t, buf.String(), "super-secret")
	assert.Contains(t, buf.String(), `"present":true`)

	assert.Equal(t, "Credentials{}", Credentials{}.String())
}

func TestCredentials_IsZero(t *testing.T) {
	assert.True(t, Credentials{}.IsZero())
	assert.True(t, Credentials{Token: "t"}.IsZero())
	assert.False(t, Credentials{APIKey: "k"}.IsZero())
}
