package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestParseHeaders(t *testing.T) {
	res := parseHeaders("Authorization=Bearer abc, x-team=backup")
	if res["Authorization"] != "Bearer abc" || res["x-team"] != "backup" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseHeaders(""); len(res) != 0 {
		t.Fatalf("expected empty map")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Directory != "." || cfg.Provider != ProviderRuleBased || cfg.BackupDir != DefaultBackupDir {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.NoBackup || cfg.FuzzyHash {
		t.Fatalf("boolean defaults should be off: %+v", cfg)
	}
	if len(cfg.SkipExtensions) != 2 || cfg.SkipExtensions[0] != ".go" || cfg.SkipExtensions[1] != ".py" {
		t.Fatalf("unexpected skip extensions: %v", cfg.SkipExtensions)
	}
	if cfg.OtelTimeout != 5*time.Second {
		t.Fatalf("unexpected otel timeout: %v", cfg.OtelTimeout)
	}
}

func TestNormalize(t *testing.T) {
	cfg := Defaults()
	cfg.Provider = "  OpenAI "
	cfg.Directory = "  "
	cfg.BackupDir = ""
	cfg.SkipExtensions = []string{"GO", ".Py", ""}
	cfg.Normalize()

	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("provider not canonicalized: %q", cfg.Provider)
	}
	if cfg.Directory != "." || cfg.BackupDir != DefaultBackupDir {
		t.Fatalf("empty paths not restored: %+v", cfg)
	}
	if len(cfg.SkipExtensions) != 2 || cfg.SkipExtensions[0] != ".go" || cfg.SkipExtensions[1] != ".py" {
		t.Fatalf("extensions not normalized: %v", cfg.SkipExtensions)
	}
}

func TestNormalizeFuzzyDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.FuzzyHash = true
	cfg.Normalize()
	if len(cfg.FuzzyAlgorithms) != 1 || cfg.FuzzyAlgorithms[0] != "tlsh" {
		t.Fatalf("fuzzy-hash should default the algorithm: %v", cfg.FuzzyAlgorithms)
	}

	cfg = Defaults()
	cfg.FuzzyAlgorithms = []string{"TLSH"}
	cfg.Normalize()
	if !cfg.FuzzyHash {
		t.Fatal("naming an algorithm should enable fuzzy hashing")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg = Defaults()
	cfg.Provider = "gemini"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid provider error")
	}

	cfg = Defaults()
	cfg.MaxIOPerSecond = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid rate error")
	}

	cfg = Defaults()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid log level error")
	}

	cfg = Defaults()
	cfg.OtelEndpoint = "collector:4318"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing scheme error")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	content := `{"directory":"/srv/share","provider":"anthropic","no_backup":true,"max_io_per_second":10}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := Defaults()
	if err := cfg.loadFromFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Directory != "/srv/share" || cfg.Provider != "anthropic" || !cfg.NoBackup || cfg.MaxIOPerSecond != 10 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := Defaults()
	if err := cfg.loadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected read error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := cfg.loadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}
