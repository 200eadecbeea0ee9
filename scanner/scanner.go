package scanner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/h2non/filetype"

	"custodian/config"
	"custodian/logger"
)

// ErrInvalidDirectory marks a scan target that does not exist or is not a
// directory. Callers treat it as an operator error, not a crash.
var ErrInvalidDirectory = errors.New("invalid scan directory")

// Scan lists the regular files directly inside cfg.Directory and returns one
// FileRecord per file in discovery order. Hidden files, the tool's own source
// artifacts, and anything rejected by the include/exclude patterns are
// skipped. Subdirectories are never descended into.
func Scan(cfg *config.Config) ([]*FileRecord, error) {
	info, err := os.Stat(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDirectory, cfg.Directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, cfg.Directory)
	}

	entries, err := os.ReadDir(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDirectory, cfg.Directory, err)
	}

	matcher := newFilter(cfg.IncludePatterns, cfg.ExcludePatterns)

	var records []*FileRecord
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if isOwnArtifact(name, cfg.SkipExtensions) {
			continue
		}
		path := filepath.Join(cfg.Directory, name)
		if !matcher.keep(path) {
			continue
		}

		record := &FileRecord{Name: name, Path: path}
		enrich(record, entry)
		records = append(records, record)
	}
	return records, nil
}

func isOwnArtifact(name string, skipExtensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, skip := range skipExtensions {
		if ext == skip {
			return true
		}
	}
	return false
}

// enrich fills in size, timestamps, and mime type. All of it is best-effort:
// a file that cannot be statted or sniffed still gets classified by name.
func enrich(record *FileRecord, entry os.DirEntry) {
	info, err := entry.Info()
	if err != nil {
		logger.Warnf("Failed to stat %s: %v", record.Path, err)
		return
	}
	record.Size = info.Size()
	record.ModTime = info.ModTime().Format(time.RFC3339)

	if ts, err := times.Stat(record.Path); err == nil {
		record.AccessTime = ts.AccessTime().Format(time.RFC3339)
	}

	if mime, err := getMimeType(record.Path); err == nil {
		record.MimeType = mime
	}
}

func getMimeType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf := make([]byte, 261)
	_, err = file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}

	kind, err := filetype.Match(buf)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown || kind.MIME.Value == "" {
		return "unknown", nil
	}
	return kind.MIME.Value, nil
}
