// Package dispatch turns raw command text into an effect. The Dispatcher is
// the single authority for parsing, validation, eligibility, and routing:
// local commands run against an in-process handler table, backend commands
// are sent through the request client. A single-flight gate guarantees at
// most one execution is in progress at any time; concurrent attempts are
// rejected immediately, never queued.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"texedit/internal/logger"
	"texedit/internal/registry"
	"texedit/pkg/textypes"
)

// Requester performs one command exchange against the backend. The request
// client satisfies this interface.
type Requester interface {
	Post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error)
}

// Readiness answers whether the backend is usable right now. The
// connectivity monitor satisfies this interface.
type Readiness interface {
	IsReady() bool
}

// SubscriptionID identifies one completion-observer registration.
type SubscriptionID string

// CompletionFunc receives the normalized result of every execution attempt.
type CompletionFunc func(textypes.Result)

// Dispatcher routes validated commands and enforces the single-flight gate.
type Dispatcher struct {
	mu sync.Mutex

	registry  *registry.Registry
	requester Requester
	monitor   Readiness

	execState     textypes.ExecutionState
	completedSubs map[SubscriptionID]CompletionFunc

	helpRenderer renderFunc
	now          func() time.Time

	log *log.Logger
}

// New creates a dispatcher over the given registry, request client, and
// connectivity monitor.
func New(reg *registry.Registry, requester Requester, monitor Readiness) *Dispatcher {
	return &Dispatcher{
		registry:      reg,
		requester:     requester,
		monitor:       monitor,
		execState:     textypes.ExecutionIdle,
		completedSubs: make(map[SubscriptionID]CompletionFunc),
		helpRenderer:  newHelpRenderer(),
		now:           time.Now,
		log:           logger.NewStyledLogger("Dispatcher"),
	}
}

// ExecutionState returns a snapshot of the concurrency gate.
func (d *Dispatcher) ExecutionState() textypes.ExecutionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execState
}

// IsExecuting reports whether a command is currently in flight.
func (d *Dispatcher) IsExecuting() bool {
	return d.ExecutionState() == textypes.ExecutionBusy
}

// SubscribeCompleted registers a callback receiving the normalized result of
// every execution attempt, success or failure. Returns a handle for
// Unsubscribe.
func (d *Dispatcher) SubscribeCompleted(fn CompletionFunc) SubscriptionID {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := SubscriptionID(uuid.NewString())
	d.completedSubs[id] = fn
	return id
}

// Unsubscribe removes a completion registration. Unknown handles are ignored.
func (d *Dispatcher) Unsubscribe(id SubscriptionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.completedSubs, id)
}

// EligibleCommands returns the commands runnable right now, in catalog
// order: local commands always, backend commands only while connectivity is
// ready.
func (d *Dispatcher) EligibleCommands() []string {
	ready := d.monitor.IsReady()
	var eligible []string
	for _, name := range d.registry.AllCommands() {
		desc, _ := d.registry.Descriptor(name)
		if !desc.RequiresRemote || ready {
			eligible = append(eligible, name)
		}
	}
	return eligible
}

// Execute parses, validates, and runs one command against the given input
// body. It blocks until the outcome is known and returns the normalized
// result; the same result is delivered to completion subscribers. A call
// arriving while another execution is in flight fails immediately with the
// already-executing outcome and leaves the running command untouched.
func (d *Dispatcher) Execute(ctx context.Context, raw string, body string) textypes.Result {
	d.mu.Lock()
	if d.execState == textypes.ExecutionBusy {
		d.mu.Unlock()
		result := textypes.Result{
			Command: raw,
			Outcome: textypes.OutcomeAlreadyExecuting,
			Message: textypes.ErrAlreadyExecuting.Error(),
		}
		d.log.Warn("Execution rejected", "command", raw, "reason", "already executing")
		d.notifyCompleted(result)
		return result
	}
	d.execState = textypes.ExecutionBusy
	d.mu.Unlock()

	// Every exit path below funnels through finish: the gate always
	// returns to idle exactly once per accepted execution.
	result := d.execute(ctx, raw, body)
	return d.finish(result)
}

// finish resets the gate and delivers the result through the completion
// subscribers.
func (d *Dispatcher) finish(result textypes.Result) textypes.Result {
	d.mu.Lock()
	d.execState = textypes.ExecutionIdle
	d.mu.Unlock()

	d.log.Debug("Command completed", "command", result.Command, "outcome", result.Outcome.String())
	d.notifyCompleted(result)
	return result
}

func (d *Dispatcher) notifyCompleted(result textypes.Result) {
	d.mu.Lock()
	subs := make([]CompletionFunc, 0, len(d.completedSubs))
	for _, fn := range d.completedSubs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(result)
	}
}

// execute runs one accepted command. It assumes the gate is held.
func (d *Dispatcher) execute(ctx context.Context, raw string, body string) textypes.Result {
	parsed, err := d.Parse(raw)
	if err != nil {
		return errorResult(raw, err)
	}

	desc, _ := d.registry.Descriptor(parsed.Base)

	if desc.RequiresRemote && !d.monitor.IsReady() {
		err := fmt.Errorf("%w: command %q needs the backend but it is not ready", textypes.ErrRemoteUnavailable, parsed.Base)
		return errorResult(parsed.Base, err)
	}

	if desc.RequiresInput && isBlank(body) {
		err := fmt.Errorf("%w: command %q requires input text", textypes.ErrValidation, parsed.Base)
		return errorResult(parsed.Base, err)
	}

	logger.CommandExecution(parsed.Base, parsed.Structured)

	if !desc.RequiresRemote {
		return d.executeLocal(parsed)
	}
	return d.executeRemote(ctx, parsed, body)
}

// executeRemote sends the command to the backend and normalizes the
// response through the command-specific formatter.
func (d *Dispatcher) executeRemote(ctx context.Context, parsed textypes.ParsedCommand, body string) textypes.Result {
	payload := make(map[string]any, len(parsed.Structured)+2)
	for k, v := range parsed.Structured {
		payload[k] = v
	}
	payload["text"] = body
	payload["timestamp"] = d.now().Unix()

	response, err := d.requester.Post(ctx, "/api/"+parsed.Base, payload)
	if err != nil {
		return errorResult(parsed.Base, fmt.Errorf("server command failed: %w", err))
	}

	return textypes.Result{
		Command: parsed.Base,
		Outcome: textypes.OutcomeSuccess,
		Message: formatResponse(parsed.Base, response),
	}
}

func errorResult(command string, err error) textypes.Result {
	return textypes.Result{
		Command: command,
		Outcome: textypes.OutcomeForError(err),
		Message: err.Error(),
	}
}
