package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := ParseEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AssetDir != "assets" || cfg.Workers != 4 || cfg.LoadTimeout != 0 || cfg.Watch {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TickRate != 16*time.Millisecond {
		t.Fatalf("TickRate = %s", cfg.TickRate)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("SHOWROOM_ASSET_DIR", "/srv/assets")
	t.Setenv("SHOWROOM_LOAD_WORKERS", "8")
	t.Setenv("SHOWROOM_LOAD_TIMEOUT", "30s")
	t.Setenv("SHOWROOM_WATCH", "true")

	cfg, err := ParseEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AssetDir != "/srv/assets" || cfg.Workers != 8 || cfg.LoadTimeout != 30*time.Second || !cfg.Watch {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseEnvRejectsInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHOWROOM_LOAD_WORKERS", "0"},
		{"SHOWROOM_LOAD_WORKERS", "many"},
		{"SHOWROOM_LOAD_TIMEOUT", "-1s"},
		{"SHOWROOM_TICK_RATE", "0s"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := ParseEnv(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type sample struct {
	Title string `toml:"title" yaml:"title"`
	Count int    `toml:"count" yaml:"count"`
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.toml": "title = \"hello\"\ncount = 3\n",
		"a.yaml": "title: hello\ncount: 3\n",
		"a.yml":  "title: hello\ncount: 3\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			var s sample
			if err := DecodeFile(path, &s); err != nil {
				t.Fatal(err)
			}
			if s.Title != "hello" || s.Count != 3 {
				t.Fatalf("decoded %+v", s)
			}
		})
	}
}

func TestDecodeUnsupported(t *testing.T) {
	var s sample
	if err := Decode(".json", []byte("{}"), &s); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}
