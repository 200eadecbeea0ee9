// Package classify decides which scanned files look sensitive based on their
// names. Strategies never return errors: every failure path degrades to a
// valid classification of every record.
package classify

import (
	"context"

	"custodian/config"
	"custodian/scanner"
)

// Strategy populates the classification fields of every record and returns
// the number of records marked sensitive.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, records []*scanner.FileRecord) int
}

// New selects the strategy for cfg.Provider. Selection happens once, at
// pipeline construction.
func New(cfg *config.Config) Strategy {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewExternalModel(newOpenAICompleter(cfg.OpenAIModel))
	case config.ProviderAnthropic:
		return NewExternalModel(newAnthropicCompleter(cfg.AnthropicModel))
	case config.ProviderLocal:
		return NewLocalStub()
	default:
		return NewRuleBased()
	}
}
