package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"custodian/logger"
	"custodian/scanner"
)

// Completer is one call to an external text-generation service: a free-text
// prompt in, a free-text completion out.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ExternalModel asks an external model to classify the whole batch in one
// prompt. A failed call falls back to RuleBased for the entire batch; an
// unparsable response yields zero sensitive classifications without falling
// back.
type ExternalModel struct {
	completer Completer
	fallback  *RuleBased
}

func NewExternalModel(completer Completer) *ExternalModel {
	return &ExternalModel{
		completer: completer,
		fallback:  NewRuleBased(),
	}
}

func (m *ExternalModel) Name() string {
	return m.completer.Name()
}

func (m *ExternalModel) Classify(ctx context.Context, records []*scanner.FileRecord) int {
	if len(records) == 0 {
		return 0
	}

	prompt := buildPrompt(records)
	text, err := m.completer.Complete(ctx, prompt)
	if err != nil {
		logger.Errorf("%s classification failed: %v", m.completer.Name(), err)
		logger.Warn("Falling back to rule-based classification")
		return m.fallback.Classify(ctx, records)
	}
	return applyResponse(text, records)
}

// buildPrompt enumerates every filename with a 1-based index and asks for a
// JSON array of verdicts.
func buildPrompt(records []*scanner.FileRecord) string {
	var names strings.Builder
	for i, record := range records {
		fmt.Fprintf(&names, "%d. %s\n", i+1, record.Name)
	}

	return fmt.Sprintf(`You are a file classification assistant. Analyze the following filenames and identify which ones MAY contain sensitive or important information that should be backed up.

Consider files that might contain:
- Financial documents (tax returns, bank statements, invoices, receipts)
- Personal identification (passport copies, ID scans, certificates)
- Confidential work files (contracts, NDAs, proprietary data)
- Private data (medical records, legal documents)
- Important projects or source code
- Cryptographic keys or credentials

Filenames to analyze:
%s
Respond in JSON format with an array of objects. Each object should have:
- "index": the file number (1-based)
- "sensitive": true or false
- "reason": brief explanation if sensitive (max 50 chars)
- "confidence": 0.0 to 1.0

Example response:
[
  {"index": 1, "sensitive": true, "reason": "Tax document", "confidence": 0.9},
  {"index": 2, "sensitive": false, "reason": "Generic document", "confidence": 0.3}
]

Return only the JSON array, no additional text.`, names.String())
}

type verdictEntry struct {
	Index      int      `json:"index"`
	Sensitive  bool     `json:"sensitive"`
	Reason     string   `json:"reason"`
	Confidence *float64 `json:"confidence"`
}

const responseSampleLimit = 200

// applyResponse digs the JSON array out of the completion, tolerating
// surrounding commentary and markdown fencing, and maps each verdict onto its
// record. Out-of-range indices are skipped silently.
func applyResponse(text string, records []*scanner.FileRecord) int {
	array, ok := extractJSONArray(text)
	if !ok {
		logger.Errorf("Error parsing model response: no JSON array found")
		logger.Errorf("Response: %s", truncate(text, responseSampleLimit))
		return 0
	}

	var verdicts []verdictEntry
	if err := json.Unmarshal([]byte(array), &verdicts); err != nil {
		logger.Errorf("Error parsing model response: %v", err)
		logger.Errorf("Response: %s", truncate(text, responseSampleLimit))
		return 0
	}

	count := 0
	for _, v := range verdicts {
		idx := v.Index - 1
		if idx < 0 || idx >= len(records) {
			continue
		}
		record := records[idx]
		record.Sensitive = v.Sensitive
		record.Reason = v.Reason
		if v.Confidence != nil {
			record.Confidence = *v.Confidence
		} else {
			record.Confidence = 0.5
		}
		if record.Sensitive {
			count++
		}
	}
	return count
}

// extractJSONArray returns the first-'['-to-last-']' substring of s.
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "]")
	if end < start {
		return "", false
	}
	return s[start : end+1], true
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
