// Package report serializes one pipeline run into the backup store and,
// optionally, to an OTLP logs endpoint.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"custodian/backup"
	"custodian/config"
	"custodian/logger"
	"custodian/sysinfo"
)

// Classification is one file's verdict as it appears in the report.
type Classification struct {
	Filename   string  `json:"filename"`
	Sensitive  bool    `json:"sensitive"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Report is the per-run JSON document written into the backup store.
type Report struct {
	Timestamp       string            `json:"timestamp"`
	Provider        string            `json:"provider"`
	TotalFiles      int               `json:"total_files"`
	SensitiveFiles  int               `json:"sensitive_files"`
	Classifications []Classification  `json:"classifications"`
	BackedUpFiles   int               `json:"backed_up_files"`
	Backups         []backup.Entry    `json:"backups,omitempty"`
	Host            *sysinfo.HostInfo `json:"host,omitempty"`
}

// Writer persists run reports. One Writer serves one run.
type Writer struct {
	dir      string
	runStamp string
	otel     *otelLogger
}

func NewWriter(cfg *config.Config, runStamp string) *Writer {
	w := &Writer{dir: cfg.BackupDir, runStamp: runStamp}
	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}
	return w
}

// Write stores the report as classification_report_<run-timestamp>.json in
// the backup store, creating the store if needed, and returns the path.
func (w *Writer) Write(rep *Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0700); err != nil {
		return "", fmt.Errorf("create report directory: %v", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("classification_report_%s.json", w.runStamp))
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write report: %v", err)
	}

	if w.otel != nil {
		w.otel.Emit("report", rep)
		for i := range rep.Classifications {
			w.otel.Emit("classification", &rep.Classifications[i])
		}
	}
	return path, nil
}

// Close flushes the OTLP exporter when one is configured.
func (w *Writer) Close() {
	if w.otel != nil {
		w.otel.Shutdown()
	}
}
