package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Http.Port != 8080 || cfg.Log.Level != "info" || cfg.Predict.CacheSize != 0 {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
	}

	cfg, err := Load(writeConfig(t, t.TempDir(), ""))
	if err != nil {
		t.Fatalf("empty file should yield defaults: %v", err)
	}
	if cfg.Http.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected body limit %d", cfg.Http.MaxBodyBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
http:
  port: 9090
  read_timeout: 3s
log:
  level: debug
  format: console
predict:
  cache_size: 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 9090 || cfg.Http.ReadTimeout != 3*time.Second {
		t.Fatalf("http not overridden: %+v", cfg.Http)
	}
	if cfg.Http.WriteTimeout != 15*time.Second {
		t.Fatalf("expected default write timeout to survive, got %v", cfg.Http.WriteTimeout)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" || cfg.Predict.CacheSize != 64 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":     "http: [port",
		"port":       "http:\n  port: 70000\n",
		"format":     "log:\n  format: xml\n",
		"cache size": "predict:\n  cache_size: -1\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, t.TempDir(), body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			select {
			case changes <- cfg:
			default:
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-changes:
			// A truncating write can be observed before the new content lands.
			if cfg.Log.Level != "debug" {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("watch returned error: %v", err)
			}
			return
		case <-tick.C:
			// Rewrite until the watcher is registered and reports the change.
			writeConfig(t, dir, "log:\n  level: debug\n")
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}
