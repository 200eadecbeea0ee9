// Package backup copies classified-sensitive files into the backup store.
// Source files are read, never written. Every copy is best-effort: one
// failure is recorded and the batch continues.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"custodian/config"
	"custodian/fuzzy"
	"custodian/hasher"
	"custodian/logger"
	"custodian/scanner"
)

// TimestampLayout gives destination prefixes second-level resolution. Two
// runs in the same second can collide on same-named sources; that limitation
// is accepted, not hidden.
const TimestampLayout = "20060102_150405"

// Entry records one materialization attempt for the run report.
type Entry struct {
	Filename    string            `json:"filename"`
	Destination string            `json:"destination,omitempty"`
	Size        int64             `json:"size,omitempty"`
	Hashes      map[string]string `json:"hashes,omitempty"`
	FuzzyHashes map[string]string `json:"fuzzy_hashes,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Materializer copies sensitive records into one backup store directory.
type Materializer struct {
	dir             string
	runStamp        string
	hashAlgorithms  []string
	fuzzyAlgorithms []string
	limiter         *rate.Limiter
}

// New builds a Materializer for one run. runStamp must be the run's shared
// timestamp in TimestampLayout form.
func New(cfg *config.Config, runStamp string) *Materializer {
	m := &Materializer{
		dir:            cfg.BackupDir,
		runStamp:       runStamp,
		hashAlgorithms: cfg.HashAlgorithms,
	}
	if cfg.FuzzyHash {
		m.fuzzyAlgorithms = cfg.FuzzyAlgorithms
	}
	if cfg.MaxIOPerSecond > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}
	return m
}

// Dir returns the backup store directory.
func (m *Materializer) Dir() string {
	return m.dir
}

// EnsureStore creates the backup store directory if it does not exist.
func (m *Materializer) EnsureStore() error {
	return os.MkdirAll(m.dir, 0700)
}

// Run copies every sensitive record into the store and returns one Entry per
// attempt plus the count of successful copies.
func (m *Materializer) Run(ctx context.Context, records []*scanner.FileRecord) ([]Entry, int) {
	var sensitive []*scanner.FileRecord
	for _, record := range records {
		if record.Sensitive {
			sensitive = append(sensitive, record)
		}
	}
	if len(sensitive) == 0 {
		return nil, 0
	}

	if err := m.EnsureStore(); err != nil {
		logger.Errorf("Failed to create backup directory %s: %v", m.dir, err)
		entries := make([]Entry, 0, len(sensitive))
		for _, record := range sensitive {
			entries = append(entries, Entry{Filename: record.Name, Error: err.Error()})
		}
		return entries, 0
	}

	bar := progressbar.NewOptions(len(sensitive),
		progressbar.OptionSetDescription("Backing up"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(progressVisible()),
	)

	entries := make([]Entry, 0, len(sensitive))
	copied := 0
	for _, record := range sensitive {
		select {
		case <-ctx.Done():
			logger.Warn("Backup interrupted; remaining files skipped")
			return entries, copied
		default:
		}
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				return entries, copied
			}
		}

		entry := m.backupOne(record)
		if entry.Error == "" {
			copied++
			logger.Infof("Backed up %s (%s, confidence %.0f%%)", record.Name, record.Reason, record.Confidence*100)
		} else {
			logger.Errorf("Failed to back up %s: %s", record.Name, entry.Error)
		}
		entries = append(entries, entry)
		_ = bar.Add(1)
	}
	return entries, copied
}

func (m *Materializer) backupOne(record *scanner.FileRecord) Entry {
	entry := Entry{Filename: record.Name}

	dest := filepath.Join(m.dir, m.runStamp+"_"+record.Name)
	size, sums, err := m.copyFile(record.Path, dest)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Destination = dest
	entry.Size = size
	entry.Hashes = sums

	for _, name := range m.fuzzyAlgorithms {
		h, ok := fuzzy.Lookup(name)
		if !ok {
			logger.Warnf("Unknown fuzzy hash algorithm: %s", name)
			continue
		}
		value, err := h.HashFile(dest)
		if err != nil {
			logger.Debugf("Fuzzy hash %s failed for %s: %v", name, dest, err)
			continue
		}
		if entry.FuzzyHashes == nil {
			entry.FuzzyHashes = make(map[string]string, len(m.fuzzyAlgorithms))
		}
		entry.FuzzyHashes[h.Name()] = value
	}
	return entry
}

// copyFile copies src to dst byte for byte, hashing the stream, and carries
// over the file mode and modification/access times where the platform
// supports it.
func (m *Materializer) copyFile(src, dst string) (int64, map[string]string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, nil, fmt.Errorf("open source: %v", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("stat source: %v", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, nil, fmt.Errorf("create destination: %v", err)
	}

	digest := hasher.New(m.hashAlgorithms)
	written, err := io.Copy(out, io.TeeReader(in, digest))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, nil, fmt.Errorf("copy: %v", err)
	}

	preserveTimes(src, dst, info.ModTime())
	return written, digest.Sums(), nil
}

func preserveTimes(src, dst string, modTime time.Time) {
	accessTime := modTime
	if ts, err := times.Stat(src); err == nil {
		accessTime = ts.AccessTime()
	}
	if err := os.Chtimes(dst, accessTime, modTime); err != nil {
		logger.Debugf("Failed to preserve times for %s: %v", dst, err)
	}
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("CUSTODIAN_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}
