package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texedit/internal/registry"
)

type staticReadiness bool

func (s staticReadiness) IsReady() bool { return bool(s) }

// fakeSearcher returns a canned result set, optionally blocking until
// released so tests can interleave input changes with in-flight requests.
type fakeSearcher struct {
	mu      sync.Mutex
	results []string
	err     error
	calls   int
	block   chan struct{}
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ []string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestEngine(t *testing.T, searcher Searcher, ready bool) *Engine {
	t.Helper()
	reg, err := registry.New()
	require.NoError(t, err)
	return New(reg, searcher, staticReadiness(ready), 4)
}

func TestSuggest_EmptyInputReturnsStarterSubset(t *testing.T) {
	e := newTestEngine(t, nil, false)

	items := e.Suggest("")
	assert.Equal(t, []string{"summarise", "tone", "keywords", "rephrase"}, items)

	// Blank input behaves the same.
	assert.Equal(t, items, e.Suggest("   "))
}

func TestSuggest_CommandPrefixMatching(t *testing.T) {
	e := newTestEngine(t, nil, false)

	assert.Equal(t, []string{"rephrase", "rewrite"}, e.Suggest("re"))
	assert.Equal(t, []string{"summarise"}, e.Suggest("summ"))
	assert.Equal(t, []string{"summarise"}, e.Suggest("SUMM"), "prefix matching is case-insensitive")
	assert.Empty(t, e.Suggest("xyz"))
}

func TestSuggest_CapAtConfiguredLimit(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)
	e := New(reg, nil, staticReadiness(false), 2)

	// Every command except "clear" matches one of these prefixes; the
	// empty prefix matches all.
	all := e.Suggest("")
	assert.Equal(t, reg.StarterCommands(), all, "empty input is the starter set, not a prefix match")

	// A prefix matching many commands is capped.
	matches := e.rank("r")
	assert.LessOrEqual(t, len(matches), 2)
}

func TestSuggest_EnumeratedArgumentCompletion(t *testing.T) {
	e := newTestEngine(t, nil, false)

	assert.Equal(t, []string{"tone formal"}, e.Suggest("tone fo"))
	assert.Equal(t, []string{"tone formal", "tone casual"}, e.Suggest("tone "))
	assert.Equal(t, []string{"tone casual"}, e.Suggest("tone CAS"))
	assert.Empty(t, e.Suggest("tone x"))
}

func TestSuggest_PercentageExamples(t *testing.T) {
	e := newTestEngine(t, nil, false)

	assert.Equal(t,
		[]string{"summarise 10", "summarise 25", "summarise 50", "summarise 75"},
		e.Suggest("summarise "))
	assert.Equal(t, []string{"summarise 25"}, e.Suggest("summarise 2"))
}

func TestSuggest_ArgumentlessExactMatch(t *testing.T) {
	e := newTestEngine(t, nil, false)

	assert.Equal(t, []string{"keywords"}, e.Suggest("keywords "))
	assert.Empty(t, e.Suggest("keywords x"))
}

func TestSuggest_UnknownCommandArgument(t *testing.T) {
	e := newTestEngine(t, nil, false)

	assert.Empty(t, e.Suggest("frobnicate "))
}

func TestSuggest_NoEnrichmentWhileDisconnected(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"summarise"}}
	e := newTestEngine(t, searcher, false)

	e.Suggest("summ")
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, searcher.callCount())
}

func TestSuggest_NoEnrichmentForArgumentQueries(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"tone"}}
	e := newTestEngine(t, searcher, true)

	e.Suggest("tone fo")
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, searcher.callCount(), "enrichment only applies to single bare tokens")
}

func TestSuggest_RemoteEnrichmentDelivered(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"rewrite", "rephrase"}}
	e := newTestEngine(t, searcher, true)

	var mu sync.Mutex
	var deliveries [][]string
	e.SubscribeSuggestions(func(query string, items []string) {
		mu.Lock()
		deliveries = append(deliveries, append([]string(nil), items...))
		mu.Unlock()
	})

	local := e.Suggest("re")
	assert.Equal(t, []string{"rephrase", "rewrite"}, local)

	// The same query is delivered twice: local first, then enriched.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(deliveries) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"rephrase", "rewrite"}, deliveries[0])
	assert.Equal(t, []string{"rewrite", "rephrase"}, deliveries[1])
}

func TestSuggest_IdenticalRemoteResultNotRedelivered(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"rephrase", "rewrite"}}
	e := newTestEngine(t, searcher, true)

	var mu sync.Mutex
	count := 0
	e.SubscribeSuggestions(func(string, []string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	e.Suggest("re")
	require.Eventually(t, func() bool { return searcher.callCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "an enrichment equal to the local list adds nothing")
}

func TestSuggest_StaleRemoteResultDiscarded(t *testing.T) {
	searcher := &fakeSearcher{
		results: []string{"rewrite", "rephrase"},
		block:   make(chan struct{}),
	}
	e := newTestEngine(t, searcher, true)

	var mu sync.Mutex
	var queries []string
	e.SubscribeSuggestions(func(query string, _ []string) {
		mu.Lock()
		queries = append(queries, query)
		mu.Unlock()
	})

	e.Suggest("re")
	// The user keeps typing before the remote search returns. The second
	// query carries a trailing space, so it does not trigger its own
	// enrichment.
	e.Suggest("rewrite ")
	close(searcher.block)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"re", "rewrite "}, queries, "no late remote delivery for the superseded query")
}

func TestSuggest_FailedEnrichmentKeepsLocalResults(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("search down")}
	e := newTestEngine(t, searcher, true)

	var mu sync.Mutex
	count := 0
	e.SubscribeSuggestions(func(string, []string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	items := e.Suggest("to")
	assert.Equal(t, []string{"tone"}, items)

	require.Eventually(t, func() bool { return searcher.callCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestSuggest_UnsubscribeStopsDeliveries(t *testing.T) {
	e := newTestEngine(t, nil, false)

	count := 0
	id := e.SubscribeSuggestions(func(string, []string) { count++ })
	e.Suggest("to")
	assert.Equal(t, 1, count)

	e.Unsubscribe(id)
	e.Suggest("to")
	assert.Equal(t, 1, count)
}
