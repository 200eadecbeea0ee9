// Package pipeline sequences one run: scan, classify, back up, report. It
// owns no policy, only the ordering and the early exits.
package pipeline

import (
	"context"
	"time"

	"custodian/backup"
	"custodian/classify"
	"custodian/config"
	"custodian/logger"
	"custodian/report"
	"custodian/scanner"
	"custodian/sysinfo"
	"custodian/tracing"
)

type State int

const (
	Idle State = iota
	Scanned
	Classified
	BackedUp
	Reported
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanned:
		return "scanned"
	case Classified:
		return "classified"
	case BackedUp:
		return "backed-up"
	case Reported:
		return "reported"
	case Done:
		return "done"
	}
	return "unknown"
}

// Result summarizes one finished run.
type Result struct {
	Records        []*scanner.FileRecord
	SensitiveCount int
	BackedUpCount  int
	Entries        []backup.Entry
	ReportPath     string
}

// Pipeline executes exactly one run. Records created during a run never
// escape it; rerunning requires a new Pipeline.
type Pipeline struct {
	cfg      *config.Config
	strategy classify.Strategy
	runStamp string
	state    State
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		strategy: classify.New(cfg),
		runStamp: time.Now().Format(backup.TimestampLayout),
		state:    Idle,
	}
}

func (p *Pipeline) State() State {
	return p.state
}

// Run drives the state machine to Done. An invalid scan directory is the
// only error surfaced to the caller; everything downstream degrades to a
// logged, well-defined fallback.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	ctx, endScan := tracing.StartTask(ctx, "scan")
	logger.Infof("Scanning directory: %s", p.cfg.Directory)
	records, err := scanner.Scan(p.cfg)
	endScan()
	if err != nil {
		return nil, err
	}
	p.state = Scanned
	result.Records = records
	logger.Infof("Found %d files to analyze", len(records))

	if len(records) == 0 {
		logger.Info("No files found.")
		p.state = Done
		return result, nil
	}

	ctx, endClassify := tracing.StartTask(ctx, "classify")
	logger.Infof("Analyzing files with the %s strategy", p.strategy.Name())
	result.SensitiveCount = p.strategy.Classify(ctx, records)
	endClassify()
	p.state = Classified

	if result.SensitiveCount == 0 {
		// A clean run leaves no trace: no store directory and no report.
		logger.Info("No sensitive files identified. No backups needed.")
		p.state = Done
		return result, nil
	}

	logger.Infof("Identified %d potentially sensitive files", result.SensitiveCount)
	for _, record := range records {
		if record.Sensitive {
			logger.Infof("  %s: %s (confidence %.0f%%)", record.Name, record.Reason, record.Confidence*100)
		}
	}

	if !p.cfg.NoBackup {
		ctx, endBackup := tracing.StartTask(ctx, "backup")
		materializer := backup.New(p.cfg, p.runStamp)
		result.Entries, result.BackedUpCount = materializer.Run(ctx, records)
		endBackup()
		p.state = BackedUp
		logger.Infof("Backup completed: %d files backed up to %s", result.BackedUpCount, materializer.Dir())
		logger.Info("Original files remain unchanged.")
	} else {
		logger.Info("Backup creation disabled; classifying and reporting only")
	}

	_, endReport := tracing.StartTask(ctx, "report")
	writer := report.NewWriter(p.cfg, p.runStamp)
	defer writer.Close()
	path, err := writer.Write(p.buildReport(result))
	endReport()
	if err != nil {
		logger.Errorf("Failed to write classification report: %v", err)
	} else {
		result.ReportPath = path
		logger.Infof("Classification report saved: %s", path)
	}
	p.state = Reported

	p.state = Done
	return result, nil
}

func (p *Pipeline) buildReport(result *Result) *report.Report {
	classifications := make([]report.Classification, 0, len(result.Records))
	for _, record := range result.Records {
		classifications = append(classifications, report.Classification{
			Filename:   record.Name,
			Sensitive:  record.Sensitive,
			Reason:     record.Reason,
			Confidence: record.Confidence,
		})
	}
	return &report.Report{
		Timestamp:       time.Now().Format(time.RFC3339),
		Provider:        p.cfg.Provider,
		TotalFiles:      len(result.Records),
		SensitiveFiles:  result.SensitiveCount,
		Classifications: classifications,
		BackedUpFiles:   result.BackedUpCount,
		Backups:         result.Entries,
		Host:            sysinfo.Collect(),
	}
}
