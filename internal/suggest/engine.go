// Package suggest ranks candidate completions for partial command input.
// Local ranking is synchronous and recomputed from scratch on every input
// change; when connectivity allows, a remote fuzzy-search enrichment may
// deliver a second, refined list for the same query through the suggestion
// subscribers. Stale remote results are discarded by comparing the
// originating query against the current input, never by completion order.
package suggest

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"texedit/internal/logger"
	"texedit/internal/registry"
	"texedit/pkg/textypes"
)

// Searcher performs the remote fuzzy-search exchange. The request client
// satisfies this interface.
type Searcher interface {
	Search(ctx context.Context, query string, choices []string) ([]string, error)
}

// Readiness answers whether remote enrichment is currently possible.
type Readiness interface {
	IsReady() bool
}

// SubscriptionID identifies one suggestion-observer registration.
type SubscriptionID string

// SuggestionFunc receives an ordered suggestion list for the query that
// produced it. The same query may be delivered twice: once locally and once
// remotely enriched.
type SuggestionFunc func(query string, items []string)

// percentageExamples are the representative values offered for the
// free-form percentage argument.
var percentageExamples = []string{"10", "25", "50", "75"}

// Engine computes ordered, bounded suggestion lists.
type Engine struct {
	mu sync.Mutex

	registry *registry.Registry
	searcher Searcher
	monitor  Readiness
	limit    int

	currentQuery string
	subs         map[SubscriptionID]SuggestionFunc

	log *log.Logger
}

// New creates a suggestion engine. searcher may be nil to disable remote
// enrichment entirely.
func New(reg *registry.Registry, searcher Searcher, monitor Readiness, limit int) *Engine {
	return &Engine{
		registry: reg,
		searcher: searcher,
		monitor:  monitor,
		limit:    limit,
		subs:     make(map[SubscriptionID]SuggestionFunc),
		log:      logger.NewStyledLogger("Suggest"),
	}
}

// SubscribeSuggestions registers a callback for suggestion deliveries.
func (e *Engine) SubscribeSuggestions(fn SuggestionFunc) SubscriptionID {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := SubscriptionID(uuid.NewString())
	e.subs[id] = fn
	return id
}

// Unsubscribe removes a registration. Unknown handles are ignored.
func (e *Engine) Unsubscribe(id SubscriptionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, id)
}

// Suggest computes the local suggestion list for the given input, delivers
// it to subscribers, and kicks off remote enrichment when eligible. The
// first item of the returned list is the default selection.
func (e *Engine) Suggest(input string) []string {
	items := e.rank(input)

	e.mu.Lock()
	e.currentQuery = input
	e.mu.Unlock()

	e.log.Debug("Local suggestions computed", "query", input, "count", len(items))
	e.notify(input, items)

	if e.shouldEnrich(input) {
		go e.enrich(input, items)
	}

	return items
}

// rank implements the local, prefix-only ranking policy.
func (e *Engine) rank(input string) []string {
	if strings.TrimSpace(input) == "" {
		return e.registry.StarterCommands()
	}

	fields := strings.Fields(input)
	trailingSpace := strings.HasSuffix(input, " ")

	if len(fields) == 1 && !trailingSpace {
		return e.commandPrefixMatches(fields[0])
	}

	// The first token is treated as a resolved command and the rest as a
	// partial argument.
	partial := ""
	if len(fields) >= 2 {
		partial = fields[1]
	}
	if len(fields) > 2 {
		return nil
	}
	return e.argumentMatches(fields[0], partial)
}

// commandPrefixMatches returns every registered command whose name starts
// with the prefix, preserving catalog order, capped at the configured limit.
func (e *Engine) commandPrefixMatches(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var matches []string
	for _, name := range e.registry.AllCommands() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
			if len(matches) >= e.limit {
				break
			}
		}
	}
	return matches
}

// argumentMatches completes the argument slot of a resolved command. Each
// suggestion is a full replacement value ("command value").
func (e *Engine) argumentMatches(command, partial string) []string {
	name := e.registry.Resolve(command)
	desc, ok := e.registry.Descriptor(name)
	if !ok {
		return nil
	}

	partial = strings.ToLower(partial)

	switch desc.ArgumentKind {
	case textypes.ArgEnumerated:
		var matches []string
		for _, value := range desc.ArgumentValues {
			if strings.HasPrefix(strings.ToLower(value), partial) {
				matches = append(matches, name+" "+value)
			}
		}
		return matches
	case textypes.ArgPercentage:
		var matches []string
		for _, example := range percentageExamples {
			if strings.HasPrefix(example, partial) {
				matches = append(matches, name+" "+example)
			}
		}
		return matches
	default:
		// Argument-less command: once it is an exact match, the bare
		// name is the sole suggestion.
		if partial == "" {
			return []string{name}
		}
		return nil
	}
}

// shouldEnrich reports whether a remote fuzzy search should be issued for
// this query: connectivity ready and a single bare token.
func (e *Engine) shouldEnrich(input string) bool {
	if e.searcher == nil || e.monitor == nil || !e.monitor.IsReady() {
		return false
	}
	trimmed := strings.TrimSpace(input)
	return trimmed != "" && len(strings.Fields(input)) == 1 && !strings.HasSuffix(input, " ")
}

// enrich issues the fuzzy-search request and delivers the refined list if
// it is non-empty, different from the local one, and the input has not
// changed in the meantime.
func (e *Engine) enrich(query string, local []string) {
	results, err := e.searcher.Search(context.Background(), query, e.registry.AllCommands())
	if err != nil {
		e.log.Debug("Remote suggestion search failed", "query", query, "error", err)
		return
	}
	if len(results) == 0 || equalStrings(results, local) {
		return
	}

	e.mu.Lock()
	stale := e.currentQuery != query
	e.mu.Unlock()
	if stale {
		e.log.Debug("Discarding stale remote suggestions", "query", query)
		return
	}

	e.log.Debug("Remote suggestions delivered", "query", query, "count", len(results))
	e.notify(query, results)
}

func (e *Engine) notify(query string, items []string) {
	e.mu.Lock()
	subs := make([]SuggestionFunc, 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn(query, items)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
