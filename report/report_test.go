package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"custodian/backup"
	"custodian/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.BackupDir = filepath.Join(t.TempDir(), "store")
	return cfg
}

func TestWriteReport(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg, "20260831_120000")
	defer w.Close()

	rep := &Report{
		Timestamp:      "2026-08-31T12:00:00Z",
		Provider:       config.ProviderRuleBased,
		TotalFiles:     3,
		SensitiveFiles: 2,
		Classifications: []Classification{
			{Filename: "tax_2023.pdf", Sensitive: true, Reason: "Contains keyword: tax", Confidence: 0.8},
			{Filename: "photo.png"},
			{Filename: "id.key", Sensitive: true, Reason: "Sensitive file type: .key", Confidence: 0.9},
		},
		BackedUpFiles: 2,
		Backups: []backup.Entry{
			{Filename: "tax_2023.pdf", Destination: "store/20260831_120000_tax_2023.pdf", Size: 8},
			{Filename: "id.key", Destination: "store/20260831_120000_id.key", Size: 12},
		},
	}

	path, err := w.Write(rep)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "classification_report_20260831_120000.json" {
		t.Fatalf("unexpected report name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var loaded Report
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded.TotalFiles != 3 || loaded.SensitiveFiles != 2 || loaded.BackedUpFiles != 2 {
		t.Fatalf("unexpected counts: %+v", loaded)
	}
	if len(loaded.Classifications) != 3 || loaded.Classifications[2].Reason != "Sensitive file type: .key" {
		t.Fatalf("unexpected classifications: %+v", loaded.Classifications)
	}
	if len(loaded.Backups) != 2 {
		t.Fatalf("unexpected backups: %+v", loaded.Backups)
	}
}

func TestWriteCreatesStore(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg, "20260831_130000")
	defer w.Close()

	if _, err := w.Write(&Report{Provider: config.ProviderRuleBased}); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(cfg.BackupDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("store not created: %v", err)
	}
}

func TestWriteOmitsEmptyBackups(t *testing.T) {
	cfg := testConfig(t)
	w := NewWriter(cfg, "20260831_140000")
	defer w.Close()

	path, err := w.Write(&Report{Provider: config.ProviderRuleBased, SensitiveFiles: 1})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["backups"]; ok {
		t.Fatal("empty backups should be omitted")
	}
	if _, ok := raw["classifications"]; !ok {
		t.Fatal("classifications field must always be present")
	}
}
