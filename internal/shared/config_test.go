package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path == "" {
			t.Error("expected a default database path")
		}
		if config.Database.MaxOpenConns <= 0 {
			t.Error("expected a positive max open connections default")
		}
		if config.Cache.Dir == "" {
			t.Error("expected a default cache directory")
		}
		if config.Credentials.Tunez.RateLimit <= 0 {
			t.Error("expected a positive tunez rate limit default")
		}
	})

	t.Run("CreateConfigFile and LoadConfig", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		defaults := DefaultConfig()
		if config.Database.Path != defaults.Database.Path {
			t.Errorf("expected database path %q, got %q", defaults.Database.Path, config.Database.Path)
		}
	})

	t.Run("CreateConfigFile refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# existing"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig parses credentials", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.google]
client_id = "gid"
client_secret = "gsecret"
redirect_uri = "urn:ietf:wg:oauth:2.0:oob"

[credentials.tunez]
default_address = "http://music.local:51986"
rate_limit = 2.5

[database]
path = "test.db"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Google.ClientID != "gid" {
			t.Errorf("expected google client id gid, got %q", config.Credentials.Google.ClientID)
		}
		if config.Credentials.Tunez.DefaultAddress != "http://music.local:51986" {
			t.Errorf("unexpected tunez address %q", config.Credentials.Tunez.DefaultAddress)
		}
		if config.Credentials.Tunez.RateLimit != 2.5 {
			t.Errorf("unexpected tunez rate limit %v", config.Credentials.Tunez.RateLimit)
		}
		if config.Database.Path != "test.db" {
			t.Errorf("unexpected database path %q", config.Database.Path)
		}
	})
}
