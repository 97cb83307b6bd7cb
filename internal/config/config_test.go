package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_DatabasePathDefault(t *testing.T) {
	os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabasePath != "./data/telegram_backup.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "./data/telegram_backup.db")
	}
}

func TestConfig_DatabasePathFromEnv(t *testing.T) {
	os.Setenv("DATABASE_PATH", "/custom/archive.db")
	defer os.Unsetenv("DATABASE_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DatabasePath != "/custom/archive.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/custom/archive.db")
	}
}

func TestLoadChannelList(t *testing.T) {
	t.Run("empty path returns empty allowlist", func(t *testing.T) {
		list, err := LoadChannelList("")
		if err != nil {
			t.Fatalf("LoadChannelList() error = %v", err)
		}
		if !list.Allows("anything") {
			t.Error("empty allowlist should allow all channels")
		}
	})

	t.Run("parses yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "channels.yaml")
		content := "channels:\n  - news_channel\n  - second_channel\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		list, err := LoadChannelList(path)
		if err != nil {
			t.Fatalf("LoadChannelList() error = %v", err)
		}

		if !list.Allows("news_channel") {
			t.Error("news_channel should be allowed")
		}
		if list.Allows("other_channel") {
			t.Error("other_channel should not be allowed")
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		_, err := LoadChannelList("/does/not/exist.yaml")
		if err == nil {
			t.Error("expected error for missing file")
		}
	})
}
