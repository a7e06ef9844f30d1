// Package reload rebuilds the serving index when the corpus changes.
// Writers announce changes with a Notifier; every searcher instance runs a
// Watcher consuming those announcements.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/kafka"
)

// CorpusEvent announces that the stored corpus changed.
type CorpusEvent struct {
	Source    string    `json:"source"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Reloader is satisfied by *searcher.Searcher.
type Reloader interface {
	Reload(ctx context.Context) (uint64, error)
}

// Invalidator is satisfied by *cache.QueryCache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Watcher reloads the corpus for each event. Events stamped before the
// start of the last successful reload are already reflected and skipped,
// so a burst of announcements costs one rebuild.
type Watcher struct {
	reloader    Reloader
	invalidator Invalidator
	logger      *slog.Logger

	mu         sync.Mutex
	lastReload time.Time
	now        func() time.Time
}

// NewWatcher builds a Watcher. invalidator may be nil when caching is off.
func NewWatcher(reloader Reloader, invalidator Invalidator) *Watcher {
	return &Watcher{
		reloader:    reloader,
		invalidator: invalidator,
		logger:      slog.Default().With("component", "reload-watcher"),
		now:         time.Now,
	}
}

// Handler adapts the watcher to a Kafka consumer.
func (w *Watcher) Handler() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[CorpusEvent](value)
		if err != nil {
			w.logger.Error("failed to decode corpus event", "error", err)
			return nil
		}
		return w.Handle(ctx, event)
	}
}

// Handle applies one corpus event. A failed reload is returned so the
// consumer retries the event.
func (w *Watcher) Handle(ctx context.Context, event CorpusEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !event.Timestamp.IsZero() && event.Timestamp.Before(w.lastReload) {
		w.logger.Debug("corpus event already applied",
			"source", event.Source,
			"event_time", event.Timestamp,
			"last_reload", w.lastReload,
		)
		return nil
	}
	started := w.now()
	version, err := w.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reloading after %s event: %w", event.Source, err)
	}
	w.lastReload = started
	if w.invalidator != nil {
		if err := w.invalidator.Invalidate(ctx); err != nil {
			w.logger.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	w.logger.Info("corpus reloaded",
		"source", event.Source,
		"reason", event.Reason,
		"version", version,
	)
	return nil
}

// Publisher is the subset of *kafka.Producer the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Notifier announces corpus changes.
type Notifier struct {
	publisher Publisher
}

func NewNotifier(publisher Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// Notify publishes a CorpusEvent stamped with the current time.
func (n *Notifier) Notify(ctx context.Context, source, reason string) error {
	event := CorpusEvent{
		Source:    source,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if err := n.publisher.Publish(ctx, kafka.Event{Key: "corpus", Value: event}); err != nil {
		return fmt.Errorf("announcing corpus update: %w", err)
	}
	return nil
}
