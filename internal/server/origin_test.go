package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func originRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestNormalizeOrigins(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	normalized, allowAll := normalizeOrigins([]string{
		" http://Example.COM ",
		"http://example.com/chat",
		"",
		"not-a-url",
		"https://example.com:8443",
	}, log)

	require.False(t, allowAll)
	require.Equal(t, []string{"http://example.com", "https://example.com:8443"}, normalized)

	_, allowAll = normalizeOrigins([]string{"*"}, log)
	require.True(t, allowAll)

	normalized, allowAll = normalizeOrigins(nil, log)
	require.Nil(t, normalized)
	require.False(t, allowAll)
}

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	policy := newOriginPolicy([]string{"http://example.com", "https://secure.example:8443"}, log)

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "exact match", origin: "http://example.com", allowed: true},
		{name: "upper case host", origin: "http://EXAMPLE.COM", allowed: true},
		{name: "upper case scheme", origin: "HTTP://example.com", allowed: true},
		{name: "path is ignored", origin: "http://example.com/some/page", allowed: true},
		{name: "explicit port match", origin: "https://secure.example:8443", allowed: true},
		{name: "missing origin", origin: "", allowed: false},
		{name: "wrong scheme", origin: "https://example.com", allowed: false},
		{name: "wrong port", origin: "http://example.com:8080", allowed: false},
		{name: "missing port", origin: "https://secure.example", allowed: false},
		{name: "subdomain", origin: "http://evil.example.com", allowed: false},
		{name: "suffix attack", origin: "http://example.com.evil.net", allowed: false},
		{name: "no host", origin: "http://", allowed: false},
		{name: "not a url", origin: "not-a-url", allowed: false},
		{name: "javascript scheme", origin: "javascript:alert(1)", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.allowed, policy.check(originRequest(tt.origin)))
		})
	}
}

func TestOriginPolicy_Wildcard(t *testing.T) {
	policy := newOriginPolicy([]string{"*"}, logs.GetLoggerFromLevel(slog.LevelDebug))

	require.True(t, policy.allows(originRequest("https://anything.example")))
	require.False(t, policy.allows(originRequest("")))
	require.False(t, policy.allows(originRequest("not-a-url")))
}

func TestOriginPolicy_Empty_List_Blocks_Everything(t *testing.T) {
	policy := newOriginPolicy(nil, logs.GetLoggerFromLevel(slog.LevelDebug))

	require.False(t, policy.allows(originRequest("http://localhost:8080")))
}
