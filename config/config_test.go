package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effective-security/toolgate/config"
)

func writeConfig(t *testing.T, content string) string {
	file := filepath.Join(t.TempDir(), "toolgate.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func Test_Load(t *testing.T) {
	t.Setenv("GITHUB_MCP_URL", "https://api.example.com/mcp")
	t.Setenv("SEARCH_ENABLED", "false")

	file := writeConfig(t, `
call_timeout: 5000
redis:
  addr: localhost:6379
  prefix: toolgate
servers:
  - name: github
    url: ${GITHUB_MCP_URL}
    health_url: https://api.example.com/health
    requires_auth: true
    auth_kind: oauth
  - name: search
    url: https://search.example.com/mcp
    enabled: ${SEARCH_ENABLED}
`)

	cfg, err := config.Load(file)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 2)

	gh := cfg.Server("github")
	require.NotNil(t, gh)
	assert.Equal(t, "https://api.example.com/mcp", gh.URL)
	assert.Equal(t, "https://api.example.com/health", gh.HealthURL)
	assert.True(t, gh.RequiresAuth)
	assert.Equal(t, "oauth", gh.AuthKind)
	assert.True(t, gh.IsEnabled())

	search := cfg.Server("search")
	require.NotNil(t, search)
	assert.False(t, search.IsEnabled())

	assert.Nil(t, cfg.Server("unknown"))

	assert.Equal(t, 5*time.Second, cfg.CallTimeout())
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "toolgate", cfg.Redis.Prefix)
}

func Test_Load_Empty(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Servers)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout())
}

func Test_Load_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
servers:
  - name: github
`))
	assert.EqualError(t, err, "server entry must have name and url")

	_, err = config.Load(writeConfig(t, `
servers:
  - name: github
    url: https://a.example.com
  - name: github
    url: https://b.example.com
`))
	assert.EqualError(t, err, "duplicate server name: github")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func Test_Server_IsEnabled(t *testing.T) {
	tcases := []struct {
		enabled string
		exp     bool
	}{
		{"", true},
		{"true", true},
		{"yes", true},
		{"false", false},
		{"FALSE", false},
		{" false ", false},
	}
	for _, tc := range tcases {
		s := &config.Server{Name: "s", Enabled: tc.enabled}
		assert.Equal(t, tc.exp, s.IsEnabled(), "enabled=%q", tc.enabled)
	}
}
