package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "TASKDESK_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "cmd", "taskdesk")
	requireMkdirAll(t, sub)
	chdir(t, sub)

	_ = os.Unsetenv("TASKDESK_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("TASKDESK_TEST_ENV_LOAD"))
}

func TestLoad_ParsesAPIOptions(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TASKDESK_API_URL", "https://tasks.example.com/")
	t.Setenv("TASKDESK_TOKEN", "secret")
	t.Setenv("TASKDESK_ORG_ID", "org-1")
	t.Setenv("TASKDESK_REQUEST_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(c.Unload)

	require.Equal(t, "https://tasks.example.com", c.API.URL)
	require.Equal(t, "secret", c.API.Token)
	require.Equal(t, "org-1", c.API.OrgID)
	require.Equal(t, 5*time.Second, c.API.RequestTimeout)
	require.NotNil(t, c.Logger())
	require.Equal(t, "debug", c.Logger().GetLevel().String())
}

func TestLoad_RejectsInvalidURL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TASKDESK_API_URL", "not a url")

	_, err := Load(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "TASKDESK_API_URL")
}

func TestLoad_RateLimitAndCORS(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STUB_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_GLOBAL_RPS", "5")

	c, err := Load(nil)
	require.NoError(t, err)
	t.Cleanup(c.Unload)
	require.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, c.StubCORSOrigins)
	require.True(t, c.RateLimit.Enabled)
	require.Equal(t, 5, c.RateLimit.GlobalRPS)
	require.Equal(t, "memory", c.RateLimit.Storage)

	t.Setenv("RATE_LIMIT_STORAGE", "redis")
	_, err = Load(nil)
	require.ErrorContains(t, err, "RATE_LIMIT_REDIS_URL")
}

func TestClampPageSize(t *testing.T) {
	c := &Configuration{PageSize: 25, MaxPageSize: 100}
	require.Equal(t, 25, c.ClampPageSize(0))
	require.Equal(t, 10, c.ClampPageSize(10))
	require.Equal(t, 100, c.ClampPageSize(500))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(dir))
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
