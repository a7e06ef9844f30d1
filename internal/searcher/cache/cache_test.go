package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

type fakeRemote struct {
	mu   sync.Mutex
	data map[string]string
	err  error
	gets int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (f *fakeRemote) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = string(value)
	return nil
}

func (f *fakeRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func result(query string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     query,
		TotalHits: 1,
		Results: []executor.Result{{
			Section:     corpus.Section{ID: "us-5", Title: "Due Process Clause"},
			Document:    corpus.Document{ID: "us-const", AuthorityLevel: corpus.AuthorityFederal},
			Score:       11.3863,
			MatchedText: "without due process of law.",
		}},
		TermStats: map[string]int{"due": 1},
	}
}

func TestKey(t *testing.T) {
	f := filter.Filters{AuthorityLevels: []corpus.AuthorityLevel{corpus.AuthorityFederal}}
	base := Key("s1", []string{"due", "process"}, f, 10)

	assert.Equal(t, base, Key("s1", []string{"process", "due"}, f, 10))
	assert.NotEqual(t, base, Key("s2", []string{"due", "process"}, f, 10))
	assert.NotEqual(t, base, Key("s1", []string{"due", "process"}, filter.Filters{}, 10))
	assert.NotEqual(t, base, Key("s1", []string{"due", "process"}, f, 11))
	assert.True(t, strings.HasPrefix(base, keyPrefix))
}

func TestGetOrCompute_LocalOnly(t *testing.T) {
	c, err := New(Config{LocalSize: 8}, nil, nil)
	require.NoError(t, err)

	var computed int
	compute := func() *executor.SearchResult { computed++; return result("due process") }
	key := Key("s1", []string{"due", "process"}, filter.Filters{}, 10)

	first, hit := c.GetOrCompute(context.Background(), key, compute)
	assert.False(t, hit)
	second, hit := c.GetOrCompute(context.Background(), key, compute)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, computed)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.LocalHits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.False(t, stats.RemoteEnabled)
	assert.Empty(t, stats.BreakerState)

	require.NoError(t, c.Invalidate(context.Background()))
	_, hit = c.Get(context.Background(), key)
	assert.False(t, hit)
}

func TestGetOrCompute_SingleFlight(t *testing.T) {
	c, err := New(Config{LocalSize: 8}, nil, nil)
	require.NoError(t, err)

	var computed atomic.Int32
	release := make(chan struct{})
	compute := func() *executor.SearchResult {
		computed.Add(1)
		<-release
		return result("q")
	}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := c.GetOrCompute(context.Background(), "k", compute)
			assert.NotNil(t, res)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, computed.Load(), int32(2))
}

func TestRemoteTier(t *testing.T) {
	remote := newFakeRemote()
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	writer, err := New(Config{LocalSize: 8, TTL: time.Minute}, remote, m)
	require.NoError(t, err)

	key := Key("s3", []string{"due"}, filter.Filters{}, 5)
	writer.Set(context.Background(), key, result("due"))
	require.Len(t, remote.data, 1)

	reader, err := New(Config{LocalSize: 8}, remote, nil)
	require.NoError(t, err)
	got, hit := reader.Get(context.Background(), key)
	require.True(t, hit)
	assert.Equal(t, result("due"), got)
	assert.Equal(t, int64(1), reader.Stats().RemoteHits)

	_, hit = reader.Get(context.Background(), key)
	assert.True(t, hit)
	assert.Equal(t, int64(1), reader.Stats().LocalHits)

	require.NoError(t, writer.Invalidate(context.Background()))
	assert.Empty(t, remote.data)

	_, hit = writer.Get(context.Background(), key)
	assert.False(t, hit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestRemoteFailureTripsBreaker(t *testing.T) {
	remote := newFakeRemote()
	remote.err = errors.New("connection refused")
	c, err := New(Config{
		LocalSize: 8,
		Breaker:   resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
	}, remote, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, hit := c.Get(context.Background(), "missing")
		assert.False(t, hit)
	}
	assert.Equal(t, 2, remote.gets, "open breaker stops calls to redis")
	assert.Equal(t, "open", c.Stats().BreakerState)

	res, hit := c.GetOrCompute(context.Background(), "k", func() *executor.SearchResult { return result("q") })
	assert.False(t, hit)
	assert.Equal(t, "q", res.Query)
	_, hit = c.Get(context.Background(), "k")
	assert.True(t, hit, "local tier keeps working")
}
