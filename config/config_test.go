package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kjk/common/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "json", cfg.Store.Backend)
	require.Equal(t, "contacts.json", cfg.Store.Path)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, []string{"*"}, cfg.Server.Origins())
	require.Equal(t, "", cfg.Log.Dir)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ValidFile(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "contacts.yaml", `
store:
  backend: sqlite
  path: /tmp/contacts.db
server:
  port: 9090
log:
  dir: /tmp/contacts-logs
  verbose: true
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Store.Backend)
	require.Equal(t, "/tmp/contacts.db", cfg.Store.Path)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "/tmp/contacts-logs", cfg.Log.Dir)
	require.True(t, cfg.Log.Verbose)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/contacts.yaml")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_EmptyAndCommentOnly(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"empty.yaml":   "",
		"comment.yaml": "# nothing here\n",
	} {
		cfg, err := Load(writeConfig(t, dir, name, content))
		require.NoError(t, err, name)
		require.Equal(t, DefaultConfig(), *cfg, name)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "contacts.yaml", `
store:
  backend: json
  fsync: always
`)
	_, err := Load(p)
	require.NotNil(t, err)
	require.True(t, strings.Contains(err.Error(), "config: parsing"), err.Error())
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "contacts.yaml", "store: [unclosed\n")
	_, err := Load(p)
	require.NotNil(t, err)
}

func TestLoadLayered_LaterOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	user := writeConfig(t, dir, "user.yaml", `
store:
  backend: sqlite
  path: /home/me/contacts.db
server:
  port: 9000
`)
	project := writeConfig(t, dir, "project.yaml", `
store:
  path: ./team.db
`)

	cfg, err := LoadLayered(user, filepath.Join(dir, "missing.yaml"), project)
	require.NoError(t, err)
	// backend from user layer survives, path overridden by project
	require.Equal(t, "sqlite", cfg.Store.Backend)
	require.Equal(t, "./team.db", cfg.Store.Path)
	require.Equal(t, 9000, cfg.Server.Port)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CONTACTS_BACKEND", "memory")
	t.Setenv("CONTACTS_FILE", "/data/c.json")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CONTACTS_LOG_DIR", "/var/log/contacts")
	t.Setenv("CONTACTS_VERBOSE", "true")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, "/data/c.json", cfg.Store.Path)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.Origins())
	require.Equal(t, "/var/log/contacts", cfg.Log.Dir)
	require.True(t, cfg.Log.Verbose)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		cfg := DefaultConfig()
		require.NotNil(t, cfg.ApplyEnv())
	})
	t.Run("verbose", func(t *testing.T) {
		t.Setenv("CONTACTS_VERBOSE", "loud")
		cfg := DefaultConfig()
		require.NotNil(t, cfg.ApplyEnv())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"memory without path", func(c *Config) { c.Store.Backend = "memory"; c.Store.Path = "" }, true},
		{"json without path", func(c *Config) { c.Store.Path = "" }, false},
		{"sqlite without path", func(c *Config) { c.Store.Backend = "sqlite"; c.Store.Path = "" }, false},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"no origins", func(c *Config) { c.Server.AllowedOrigins = " , " }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.NotNil(t, err)
			}
		})
	}
}
