package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"custodian/scanner"
)

// Policy tables. Order matters for reason selection: the earliest matching
// entry names the match, so keep the lists in priority order.
var sensitiveKeywords = []string{
	"tax", "bank", "passport", "ssn", "confidential",
	"private", "secret", "password", "invoice",
	"contract", "nda", "medical", "legal", "financial",
	"salary", "personal", "encrypted", "backup",
}

var sensitiveExtensions = []string{
	".key", ".pem", ".p12", ".pfx", ".gpg", ".asc",
}

const (
	keywordConfidence   = 0.8
	extensionConfidence = 0.9
)

// RuleBased classifies by case-insensitive keyword and extension tables.
// It is a pure function of the filename set and needs no network.
type RuleBased struct {
	keywords []string
	matcher  *ahocorasick.Matcher
}

func NewRuleBased() *RuleBased {
	return &RuleBased{
		keywords: sensitiveKeywords,
		matcher:  ahocorasick.NewStringMatcher(sensitiveKeywords),
	}
}

func (s *RuleBased) Name() string {
	return "rule-based"
}

func (s *RuleBased) Classify(_ context.Context, records []*scanner.FileRecord) int {
	count := 0
	for _, record := range records {
		lower := strings.ToLower(record.Name)

		if kw, ok := s.matchKeyword(lower); ok {
			record.Sensitive = true
			record.Reason = fmt.Sprintf("Contains keyword: %s", kw)
			record.Confidence = keywordConfidence
			count++
			continue
		}

		if ext, ok := matchExtension(lower); ok {
			record.Sensitive = true
			record.Reason = fmt.Sprintf("Sensitive file type: %s", ext)
			record.Confidence = extensionConfidence
			count++
		}
	}
	return count
}

// matchKeyword returns the earliest table entry found in name. The automaton
// reports hits in text order, so the winner is the hit with the lowest table
// index.
func (s *RuleBased) matchKeyword(name string) (string, bool) {
	hits := s.matcher.MatchThreadSafe([]byte(name))
	if len(hits) == 0 {
		return "", false
	}
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(s.keywords) {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	if best == -1 {
		return "", false
	}
	return s.keywords[best], true
}

func matchExtension(name string) (string, bool) {
	for _, ext := range sensitiveExtensions {
		if strings.HasSuffix(name, ext) {
			return ext, true
		}
	}
	return "", false
}
