package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	policy := newOriginPolicy([]string{"HTTP://Allowed.Example", "not a url", "", "https://second.example:8443"}, log)

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"exact match", "http://allowed.example", true},
		{"case insensitive", "http://ALLOWED.example", true},
		{"port kept", "https://second.example:8443", true},
		{"other port", "https://second.example", false},
		{"other scheme", "https://allowed.example", false},
		{"unknown", "http://evil.example", false},
		{"missing header", "", false},
		{"garbage", "::::", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			require.Equal(t, tt.want, policy.checkOrigin(r))
		})
	}
}

func TestOriginPolicy_AllowAll(t *testing.T) {
	req := require.New(t)
	policy := newOriginPolicy([]string{"*"}, logs.GetLoggerFromLevel(slog.LevelDebug))

	withOrigin := httptest.NewRequest("GET", "/ws", nil)
	withOrigin.Header.Set("Origin", "http://anything.example")
	withoutOrigin := httptest.NewRequest("GET", "/ws", nil)

	req.True(policy.allows(withOrigin))
	req.True(policy.allows(withoutOrigin))
}

func TestNormalizeOrigin(t *testing.T) {
	req := require.New(t)

	got, ok := normalizeOrigin("HTTPS://Example.COM/path?q=1")
	req.True(ok)
	req.Equal("https://example.com", got)

	_, ok = normalizeOrigin("example.com")
	req.False(ok)
}
