package keys

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeKey(prefix, host string) string {
	return prefix + base64.StdEncoding.EncodeToString([]byte(host+"$"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		wantHost     string
		wantInstance InstanceType
		wantErr      bool
	}{
		{
			name:         "production key",
			key:          encodeKey("pk_live_", "keyline.example.com"),
			wantHost:     "keyline.example.com",
			wantInstance: InstanceProduction,
		},
		{
			name:         "development key",
			key:          encodeKey("pk_test_", "magical-finch-42.lcl.dev"),
			wantHost:     "magical-finch-42.lcl.dev",
			wantInstance: InstanceDevelopment,
		},
		{
			name:         "staging host",
			key:          encodeKey("pk_live_", "prepared-phoenix-98.accountsstage.dev"),
			wantHost:     "prepared-phoenix-98.accountsstage.dev",
			wantInstance: InstanceStaging,
		},
		{
			name:    "unknown prefix",
			key:     "sk_live_abc",
			wantErr: true,
		},
		{
			name:    "not base64",
			key:     "pk_live_!!!",
			wantErr: true,
		},
		{
			name:    "missing terminator",
			key:     "pk_live_" + base64.StdEncoding.EncodeToString([]byte("host.example.com")),
			wantErr: true,
		},
		{
			name:    "empty payload",
			key:     "pk_live_" + base64.StdEncoding.EncodeToString([]byte("$")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := Parse(tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPublishableKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, pk.FrontendAPI)
			assert.Equal(t, tt.wantInstance, pk.InstanceType)
			assert.Equal(t, tt.key, pk.Raw)
		})
	}
}

func TestAPIURLFromKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{
			name: "production",
			key:  encodeKey("pk_live_", "keyline.example.com"),
			want: "https://api.keyline.com",
		},
		{
			name: "development",
			key:  encodeKey("pk_test_", "whole-gator-3.lcl.dev"),
			want: "https://api.lclkeyline.com",
		},
		{
			name: "staging",
			key:  encodeKey("pk_live_", "big-otter-7.stgstage.dev"),
			want: "https://api.keylinestage.dev",
		},
		{
			name: "unparseable falls back to production",
			key:  "garbage",
			want: "https://api.keyline.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, APIURLFromKey(tt.key))
		})
	}
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "api.keyline.com", StripScheme("https://api.keyline.com"))
	assert.Equal(t, "api.keyline.com", StripScheme("http://api.keyline.com"))
	assert.Equal(t, "api.keyline.com", StripScheme("api.keyline.com"))
	assert.Equal(t, "", StripScheme(""))
}
