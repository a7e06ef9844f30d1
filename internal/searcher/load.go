package searcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

// LoadSnapshot reads a snapshot through loader, retrying transient
// failures up to cfg.LoadRetries times with each attempt bounded by
// cfg.LoadTimeout. Invalid records are logged, not rejected; the engine
// skips what it cannot index.
func LoadSnapshot(ctx context.Context, loader corpus.Loader, cfg config.CorpusConfig) (corpus.Snapshot, error) {
	var snapshot corpus.Snapshot
	retryCfg := resilience.RetryConfig{
		MaxAttempts: cfg.LoadRetries,
		Retryable: func(err error) bool {
			return !errors.Is(err, apperrors.ErrInvalidInput)
		},
	}
	err := resilience.Retry(ctx, "corpus-load", retryCfg, func(ctx context.Context) error {
		attempt, err := resilience.TimeoutValue(ctx, cfg.LoadTimeout, "corpus-load", loader.Load)
		if err != nil {
			return err
		}
		snapshot = attempt
		return nil
	})
	if err != nil {
		return corpus.Snapshot{}, err
	}
	if err := corpus.Validate(snapshot); err != nil {
		slog.Default().With("component", "searcher").Warn("corpus has invalid records", "error", err)
	}
	return snapshot, nil
}
