package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, "app:\n  env: dev\n"))
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Kind)
	require.Equal(t, "2m", c.Cache.TTL)
	require.Equal(t, "15m", c.JWT.AccessTTL)
	require.Equal(t, 10, c.Rate.Token.Limit)
	require.Equal(t, "testdata/scenarios", c.Scenarios.Dir)
	require.Equal(t, "1h", c.Consent.SweepInterval)
}

func TestLoad_Explicit(t *testing.T) {
	c, err := Load(writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 5s
storage:
  driver: postgres
  dsn: postgres://localhost/bridge
cache:
  kind: redis
  redis:
    addr: localhost:6379
    prefix: "cb:"
jwt:
  issuer: consentbridge
  access_ttl: 30m
rate:
  enabled: true
  token:
    limit: 5
    window: 30s
`))
	require.NoError(t, err)
	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, "redis", c.Cache.Kind)
	require.True(t, c.Rate.Enabled)
	require.Equal(t, 5, c.Rate.Token.Limit)
	require.Equal(t, 30*time.Minute, Dur(c.JWT.AccessTTL))
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, "cache:\n  ttl: pronto\n"))
	require.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
	require.Error(t, err, "postgres sin dsn")

	_, err = Load(writeConfig(t, "storage:\n  driver: sqlite\n"))
	require.Error(t, err, "driver desconocido")

	_, err = Load(writeConfig(t, "cache:\n  kind: redis\n"))
	require.Error(t, err, "redis sin addr")

	_, err = Load(writeConfig(t, "app:\n  env: prod\n"))
	require.Error(t, err, "prod sin jwt secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SCENARIOS_DIR", "/srv/scenarios")

	c, err := Load(writeConfig(t, "server:\n  addr: \":8080\"\n"))
	require.NoError(t, err)
	require.Equal(t, ":7070", c.Server.Addr)
	require.Equal(t, "from-env", c.JWT.Secret)
	require.Equal(t, "/srv/scenarios", c.Scenarios.Dir)
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "memory", c.Storage.Driver)

	c, err = LoadOrDefault(writeConfig(t, "server:\n  addr: \":9999\"\n"))
	require.NoError(t, err)
	require.Equal(t, ":9999", c.Server.Addr)

	c, err = LoadOrDefault("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
}

func TestLoad_APIClients(t *testing.T) {
	c, err := Load(writeConfig(t, `
auth:
  clients:
    - id: bridge-cli
      secret_hash: "$2a$10$abcdefghijklmnopqrstuv"
    - id: sin-hash
`))
	require.NoError(t, err)

	clients := c.APIClients()
	require.Len(t, clients, 1, "clientes sin hash se descartan")
	require.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", clients["bridge-cli"])
}

func TestLoad_APIClientFromEnv(t *testing.T) {
	t.Setenv("API_CLIENT_ID", "env-cli")
	t.Setenv("API_CLIENT_SECRET_HASH", "$2a$10$envhash")

	c, err := Load(writeConfig(t, "app:\n  env: dev\n"))
	require.NoError(t, err)
	require.Equal(t, "$2a$10$envhash", c.APIClients()["env-cli"])
}
