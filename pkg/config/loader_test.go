package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
server:
  port: "8080"
`)
	writeFile(t, dir, "staging.yaml", `
db:
  host: staging-db
`)

	cfg, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	db, ok := cfg["db"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "staging-db", db["host"])
	assert.Equal(t, 5432, db["port"])

	server, ok := cfg["server"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "8080", server["port"])
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: localhost\n")

	cfg, err := LoadConfig("production", dir)
	require.NoError(t, err)

	db := cfg["db"].(map[string]interface{})
	assert.Equal(t, "localhost", db["host"])
}

func TestLoadConfigMissingBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfigSecretSubstitution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  password: ${DB_PASSWORD}
jwt:
  secret: ${JWT_SECRET}
`)
	writeFile(t, dir, "secrets.env", `
# local secrets
DB_PASSWORD=hunter2
JWT_SECRET="signing-key"
`)

	cfg, err := LoadConfig("local", dir)
	require.NoError(t, err)

	db := cfg["db"].(map[string]interface{})
	assert.Equal(t, "hunter2", db["password"])

	jwt := cfg["jwt"].(map[string]interface{})
	assert.Equal(t, "signing-key", jwt["secret"])
}

func TestMergeMapsNestedOverride(t *testing.T) {
	dst := map[string]interface{}{
		"a": map[string]interface{}{"x": 1, "y": 2},
		"b": "keep",
	}
	src := map[string]interface{}{
		"a": map[string]interface{}{"y": 3},
	}

	out := mergeMaps(dst, src)
	a := out["a"].(map[string]interface{})
	assert.Equal(t, 1, a["x"])
	assert.Equal(t, 3, a["y"])
	assert.Equal(t, "keep", out["b"])
}

func TestGetEnv(t *testing.T) {
	t.Setenv("AICOACH_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("AICOACH_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("AICOACH_TEST_MISSING", "fallback"))
}
