package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

type corpusUpdate struct {
	Source  string `json:"source"`
	Version int    `json:"version"`
}

func TestEncodeDecodeJSON(t *testing.T) {
	msg, err := encode(Event{Key: "corpus", Value: corpusUpdate{Source: "postgres", Version: 4}})
	require.NoError(t, err)
	assert.Equal(t, []byte("corpus"), msg.Key)
	assert.False(t, msg.Time.IsZero())

	got, err := DecodeJSON[corpusUpdate](msg.Value)
	require.NoError(t, err)
	assert.Equal(t, corpusUpdate{Source: "postgres", Version: 4}, got)
}

func TestEncode_Unmarshalable(t *testing.T) {
	_, err := encode(Event{Key: "k", Value: make(chan int)})
	var unsupported *json.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestDecodeJSON_Invalid(t *testing.T) {
	_, err := DecodeJSON[corpusUpdate]([]byte("{"))
	assert.ErrorContains(t, err, "decoding kafka message")
}

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.msgs) > 0 {
		msg := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func runConsumer(t *testing.T, r *fakeReader, handler MessageHandler, wantCommits int) {
	t.Helper()
	c := newConsumer(r, handler, slog.Default())
	c.retry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	c.fetchDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	require.Eventually(t, func() bool { return len(r.commits()) >= wantCommits }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, r.closed)
}

func TestConsumer_RetriesHandlerThenCommits(t *testing.T) {
	r := &fakeReader{
		msgs:      []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}},
		fetchErrs: []error{errors.New("broker not available")},
	}
	var calls atomic.Int32
	handler := func(ctx context.Context, key, value []byte) error {
		if string(value) == "a" && calls.Add(1) < 2 {
			return errors.New("reload failed")
		}
		return nil
	}

	runConsumer(t, r, handler, 2)
	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Equal(t, int32(2), calls.Load())
}

func TestConsumer_DropsPoisonMessage(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7}, {Offset: 8}}}
	var calls atomic.Int32
	handler := func(ctx context.Context, key, value []byte) error {
		calls.Add(1)
		return errors.New("always fails")
	}

	runConsumer(t, r, handler, 2)
	assert.Equal(t, []int64{7, 8}, r.commits())
	assert.Equal(t, int32(6), calls.Load())
}

type fakeWriter struct {
	mu     sync.Mutex
	writes [][]kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "lexsearch.corpus")

	require.NoError(t, p.Publish(context.Background(), Event{Key: "corpus", Value: corpusUpdate{Version: 2}}))
	require.Len(t, w.writes, 1)
	msg := w.writes[0][0]
	assert.Equal(t, "corpus", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, contentTypeJSON, string(msg.Headers[0].Value))
	assert.Equal(t, "lexsearch.corpus", p.Topic())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishWrapsWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newProducer(w, "lexsearch.corpus")

	err := p.Publish(context.Background(), Event{Key: "corpus", Value: corpusUpdate{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexsearch.corpus")
	assert.ErrorIs(t, err, w.err)
}

func TestProducer_PublishBatchSkipsUnencodable(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "lexsearch.analytics")

	err := p.PublishBatch(context.Background(), []Event{
		{Key: "a", Value: corpusUpdate{Version: 1}},
		{Key: "bad", Value: make(chan int)},
		{Key: "b", Value: corpusUpdate{Version: 2}},
	})
	require.NoError(t, err)
	require.Len(t, w.writes, 1)
	require.Len(t, w.writes[0], 2)
	assert.Equal(t, "a", string(w.writes[0][0].Key))
	assert.Equal(t, "b", string(w.writes[0][1].Key))

	require.NoError(t, p.PublishBatch(context.Background(), []Event{{Key: "bad", Value: make(chan int)}}))
	assert.Len(t, w.writes, 1, "nothing to write")
}

func TestInstanceGroupID(t *testing.T) {
	analytics, err := InstanceGroupID("lexsearch", "analytics")
	require.NoError(t, err)
	reloads, err := InstanceGroupID("lexsearch", "reload")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(analytics, "lexsearch-analytics-"), analytics)
	assert.True(t, strings.HasSuffix(analytics, "-"+strconv.Itoa(os.Getpid())), analytics)
	assert.NotEqual(t, analytics, reloads)

	again, err := InstanceGroupID("lexsearch", "analytics")
	require.NoError(t, err)
	assert.Equal(t, analytics, again, "stable within one process")
}
