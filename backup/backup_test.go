package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"custodian/config"
	"custodian/scanner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CUSTODIAN_DISABLE_PROGRESS", "1")
	cfg := config.Defaults()
	cfg.BackupDir = filepath.Join(t.TempDir(), "store")
	return cfg
}

func sensitiveRecord(t *testing.T, dir, name, content string) *scanner.FileRecord {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return &scanner.FileRecord{
		Name: name, Path: path,
		Sensitive: true, Reason: "Contains keyword: tax", Confidence: 0.8,
	}
}

func TestRunCopiesEverySensitiveFile(t *testing.T) {
	cfg := testConfig(t)
	src := t.TempDir()
	records := []*scanner.FileRecord{
		sensitiveRecord(t, src, "tax_2023.pdf", "tax body"),
		sensitiveRecord(t, src, "bank_statement.csv", "bank body"),
		sensitiveRecord(t, src, "id.key", "key body"),
		{Name: "photo.png", Path: filepath.Join(src, "photo.png")},
	}

	m := New(cfg, "20260831_120000")
	entries, copied := m.Run(context.Background(), records)

	if copied != 3 || len(entries) != 3 {
		t.Fatalf("expected 3 copies, got copied=%d entries=%d", copied, len(entries))
	}
	for _, entry := range entries {
		if entry.Error != "" {
			t.Fatalf("unexpected entry error: %+v", entry)
		}
		if !strings.HasPrefix(filepath.Base(entry.Destination), "20260831_120000_") {
			t.Fatalf("destination missing timestamp prefix: %s", entry.Destination)
		}
		copyData, err := os.ReadFile(entry.Destination)
		if err != nil {
			t.Fatalf("read copy: %v", err)
		}
		origData, err := os.ReadFile(filepath.Join(src, entry.Filename))
		if err != nil {
			t.Fatalf("read original: %v", err)
		}
		if string(copyData) != string(origData) {
			t.Fatalf("copy differs from original for %s", entry.Filename)
		}
		if entry.Size != int64(len(origData)) {
			t.Fatalf("unexpected size for %s: %d", entry.Filename, entry.Size)
		}
		if entry.Hashes["sha256"] == "" || entry.Hashes["xxh64"] == "" {
			t.Fatalf("missing hashes: %+v", entry.Hashes)
		}
	}
}

func TestRunLeavesOriginalsIntact(t *testing.T) {
	cfg := testConfig(t)
	src := t.TempDir()
	record := sensitiveRecord(t, src, "salary.xlsx", "salary body")

	m := New(cfg, "20260831_120000")
	m.Run(context.Background(), []*scanner.FileRecord{record})

	data, err := os.ReadFile(record.Path)
	if err != nil {
		t.Fatalf("original missing: %v", err)
	}
	if string(data) != "salary body" {
		t.Fatalf("original modified: %q", data)
	}
}

func TestRunContinuesAfterMissingSource(t *testing.T) {
	cfg := testConfig(t)
	src := t.TempDir()
	records := []*scanner.FileRecord{
		{Name: "gone.key", Path: filepath.Join(src, "gone.key"), Sensitive: true},
		sensitiveRecord(t, src, "tax.pdf", "tax body"),
	}

	m := New(cfg, "20260831_120000")
	entries, copied := m.Run(context.Background(), records)

	if copied != 1 || len(entries) != 2 {
		t.Fatalf("expected 1 copy of 2 attempts, got copied=%d entries=%d", copied, len(entries))
	}
	if entries[0].Error == "" {
		t.Fatal("missing source should record an error")
	}
	if entries[1].Error != "" {
		t.Fatalf("second copy should succeed: %+v", entries[1])
	}
}

func TestRunNothingSensitive(t *testing.T) {
	cfg := testConfig(t)
	records := []*scanner.FileRecord{{Name: "photo.png", Path: "/nope/photo.png"}}

	m := New(cfg, "20260831_120000")
	entries, copied := m.Run(context.Background(), records)
	if copied != 0 || entries != nil {
		t.Fatalf("expected no work, got copied=%d entries=%v", copied, entries)
	}
	if _, err := os.Stat(cfg.BackupDir); !os.IsNotExist(err) {
		t.Fatal("store should not be created when nothing is sensitive")
	}
}

func TestRunRecordsFuzzyHashes(t *testing.T) {
	cfg := testConfig(t)
	cfg.FuzzyHash = true
	cfg.FuzzyAlgorithms = []string{"tlsh"}
	src := t.TempDir()
	// tlsh needs enough input bytes to produce a digest.
	record := sensitiveRecord(t, src, "contract.docx", strings.Repeat("sensitive contract clause ", 40))

	m := New(cfg, "20260831_120000")
	entries, copied := m.Run(context.Background(), []*scanner.FileRecord{record})
	if copied != 1 {
		t.Fatalf("expected 1 copy, got %d", copied)
	}
	if entries[0].FuzzyHashes["tlsh"] == "" {
		t.Fatalf("expected tlsh digest: %+v", entries[0].FuzzyHashes)
	}
}

func TestRunCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	src := t.TempDir()
	record := sensitiveRecord(t, src, "tax.pdf", "tax body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(cfg, "20260831_120000")
	entries, copied := m.Run(ctx, []*scanner.FileRecord{record})
	if copied != 0 || len(entries) != 0 {
		t.Fatalf("canceled run should copy nothing: copied=%d entries=%d", copied, len(entries))
	}
}
