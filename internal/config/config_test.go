package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func isolate(t *testing.T) {
	t.Helper()
	// keep a real $HOME/.boxocr/boxocr.yaml out of the test
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, k := range []string{"PROVIDER", "MODEL", "LANGUAGE", "PROMPT", "TEMPERATURE", "TIMEOUT", "DPI", "SCALE", "HOST", "PORT"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != Default() {
		t.Errorf("Load() = %+v, want %+v", *cfg, Default())
	}
	if cfg.Addr() != "localhost:8888" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)

	configFile := filepath.Join(t.TempDir(), "boxocr.yaml")
	content := `
provider: ollama
model: qwen2.5vl:7b
dpi: 300
timeout: 90s
port: "9000"
`
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BOXOCR_MODEL", "llava:13b")
	t.Setenv("BOXOCR_LANGUAGE", "deu")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("dpi", 200, "")
	fs.String("port", "8888", "")
	fs.String("log-level", "INFO", "")
	if err := fs.Parse([]string{"--dpi", "150"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configFile, fs)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"provider from file", cfg.Provider, "ollama"},
		{"model from env over file", cfg.Model, "llava:13b"},
		{"language from env", cfg.Language, "deu"},
		{"dpi from flag over file", cfg.DPI, 150},
		{"port from file, flag unset", cfg.Port, "9000"},
		{"timeout parsed as duration", cfg.Timeout, 90 * time.Second},
		{"scale default", cfg.Scale, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	pc := cfg.ProviderConfig()
	if pc.Provider != "ollama" || pc.Model != "llava:13b" || pc.Language != "deu" || pc.Timeout != 90*time.Second {
		t.Errorf("ProviderConfig() = %+v", pc)
	}
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	isolate(t)

	if err := os.WriteFile("boxocr.yaml", []byte("provider: Claude\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != "claude" {
		t.Errorf("Provider = %q, want claude", cfg.Provider)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		env           map[string]string
		errorContains string
	}{
		{name: "bad yaml", content: "provider: [", errorContains: "error reading config file"},
		{name: "zero dpi", content: "dpi: 0\n", errorContains: "dpi must be positive"},
		{name: "scale too large", env: map[string]string{"BOXOCR_SCALE": "2"}, errorContains: "scale must be in"},
		{name: "negative timeout", env: map[string]string{"BOXOCR_TIMEOUT": "-1s"}, errorContains: "timeout must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfgFile := ""
			if tt.content != "" {
				cfgFile = filepath.Join(t.TempDir(), "boxocr.yaml")
				if err := os.WriteFile(cfgFile, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			_, err := Load(cfgFile, nil)
			if err == nil || !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.errorContains)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "boxocr.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# boxocr configuration") {
		t.Error("missing header")
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if *cfg != Default() {
		t.Errorf("round trip = %+v, want %+v", *cfg, Default())
	}
}
