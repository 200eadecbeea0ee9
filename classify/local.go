package classify

import (
	"context"

	"custodian/logger"
	"custodian/scanner"
)

// LocalStub marks where a local model (ollama, llama.cpp) would plug in. It
// currently defers every batch to the rule-based tables.
type LocalStub struct {
	fallback *RuleBased
}

func NewLocalStub() *LocalStub {
	return &LocalStub{fallback: NewRuleBased()}
}

func (s *LocalStub) Name() string {
	return "local"
}

func (s *LocalStub) Classify(ctx context.Context, records []*scanner.FileRecord) int {
	logger.Warn("Local model classification is not implemented; using rule-based tables")
	return s.fallback.Classify(ctx, records)
}
