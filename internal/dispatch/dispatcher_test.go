package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texedit/pkg/textypes"
)

// fakeRequester counts calls and returns canned responses, optionally
// blocking until released to simulate a slow backend.
type fakeRequester struct {
	mu       sync.Mutex
	calls    int
	endpoint string
	payload  map[string]any
	response map[string]any
	err      error
	block    chan struct{}
}

func (f *fakeRequester) Post(_ context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	f.calls++
	f.endpoint = endpoint
	f.payload = payload
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeRequester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestExecute_LocalHelpListsEligibleCommands(t *testing.T) {
	req := &fakeRequester{}
	d := newTestDispatcher(t, req, false)

	result := d.Execute(context.Background(), "help", "")
	assert.Equal(t, textypes.OutcomeSuccess, result.Outcome)
	assert.Contains(t, result.Message, "help")
	assert.Contains(t, result.Message, "clear")
	// Backend commands are not eligible while disconnected.
	assert.NotContains(t, result.Message, "summarise")
	assert.Zero(t, req.callCount())
}

func TestExecute_HelpIncludesRemoteCommandsWhenReady(t *testing.T) {
	d := newTestDispatcher(t, &fakeRequester{}, true)

	result := d.Execute(context.Background(), "help", "")
	assert.Equal(t, textypes.OutcomeSuccess, result.Outcome)
	assert.Contains(t, result.Message, "summarise")
	assert.Contains(t, result.Message, "tone")
}

func TestExecute_LocalClear(t *testing.T) {
	d := newTestDispatcher(t, &fakeRequester{}, false)

	result := d.Execute(context.Background(), "clear", "")
	assert.Equal(t, textypes.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "Input cleared", result.Message)
}

func TestExecute_UnknownCommand(t *testing.T) {
	d := newTestDispatcher(t, &fakeRequester{}, true)

	result := d.Execute(context.Background(), "frobnicate", "text")
	assert.Equal(t, textypes.OutcomeUnknownCommand, result.Outcome)
	assert.Equal(t, textypes.ExecutionIdle, d.ExecutionState())
}

func TestExecute_RemoteUnavailable_NoNetworkCall(t *testing.T) {
	req := &fakeRequester{}
	d := newTestDispatcher(t, req, false)

	result := d.Execute(context.Background(), "summarise 50", "some text")
	assert.Equal(t, textypes.OutcomeRemoteUnavailable, result.Outcome)
	assert.Zero(t, req.callCount(), "no request may be issued while disconnected")
	assert.Equal(t, textypes.ExecutionIdle, d.ExecutionState())
}

func TestExecute_RequiresInput_BlankBody(t *testing.T) {
	req := &fakeRequester{}
	d := newTestDispatcher(t, req, true)

	for _, body := range []string{"", "   ", "\n\t"} {
		result := d.Execute(context.Background(), "keywords", body)
		assert.Equal(t, textypes.OutcomeValidation, result.Outcome)
	}
	assert.Zero(t, req.callCount())
}

func TestExecute_RemoteSuccess_PayloadShape(t *testing.T) {
	req := &fakeRequester{response: map[string]any{"result": "done"}}
	d := newTestDispatcher(t, req, true)
	d.now = func() time.Time { return time.Unix(1700000000, 0) }

	result := d.Execute(context.Background(), "summarise 50", "the quick brown fox")
	require.Equal(t, textypes.OutcomeSuccess, result.Outcome)

	assert.Equal(t, "/api/summarise", req.endpoint)
	assert.Equal(t, "the quick brown fox", req.payload["text"])
	assert.Equal(t, int64(1700000000), req.payload["timestamp"])
	assert.InDelta(t, 0.50, req.payload["ratio"].(float64), 1e-9)
	assert.InDelta(t, 0.45, req.payload["min_ratio"].(float64), 1e-9)
	assert.InDelta(t, 0.55, req.payload["max_ratio"].(float64), 1e-9)
}

func TestExecute_RemoteErrorSurfacesBackendMessage(t *testing.T) {
	req := &fakeRequester{err: fmt.Errorf("%w: model not loaded", textypes.ErrRemote)}
	d := newTestDispatcher(t, req, true)

	result := d.Execute(context.Background(), "summarise", "text to shrink")
	assert.Equal(t, textypes.OutcomeRemoteError, result.Outcome)
	assert.Contains(t, result.Message, "model not loaded")
}

func TestExecute_NetworkErrorClassified(t *testing.T) {
	req := &fakeRequester{err: fmt.Errorf("%w: connection refused", textypes.ErrNetwork)}
	d := newTestDispatcher(t, req, true)

	result := d.Execute(context.Background(), "rewrite", "text")
	assert.Equal(t, textypes.OutcomeNetworkError, result.Outcome)
}

func TestExecute_SingleFlightGate(t *testing.T) {
	req := &fakeRequester{
		response: map[string]any{"result": "done"},
		block:    make(chan struct{}),
	}
	d := newTestDispatcher(t, req, true)

	firstDone := make(chan textypes.Result, 1)
	go func() {
		firstDone <- d.Execute(context.Background(), "rewrite", "text")
	}()

	// Wait until the first execution is in flight.
	require.Eventually(t, d.IsExecuting, time.Second, time.Millisecond)

	second := d.Execute(context.Background(), "keywords", "text")
	assert.Equal(t, textypes.OutcomeAlreadyExecuting, second.Outcome)
	assert.Equal(t, 1, req.callCount(), "the in-flight execution must be unaffected")

	close(req.block)
	first := <-firstDone
	assert.Equal(t, textypes.OutcomeSuccess, first.Outcome)

	// The gate is open again: a new execution succeeds.
	assert.Equal(t, textypes.ExecutionIdle, d.ExecutionState())
	third := d.Execute(context.Background(), "keywords", "text")
	assert.Equal(t, textypes.OutcomeSuccess, third.Outcome)
}

func TestExecute_GateResetsAfterEveryOutcome(t *testing.T) {
	req := &fakeRequester{err: fmt.Errorf("%w: boom", textypes.ErrRemote)}
	d := newTestDispatcher(t, req, true)

	inputs := []struct {
		raw  string
		body string
	}{
		{"frobnicate", "x"},    // unknown
		{"summarise 0", "x"},   // validation
		{"keywords", ""},       // missing input
		{"rewrite", "x"},       // remote error
		{"help", ""},           // local success
	}

	for _, in := range inputs {
		d.Execute(context.Background(), in.raw, in.body)
		assert.Equal(t, textypes.ExecutionIdle, d.ExecutionState(), in.raw)
	}
}

func TestSubscribeCompleted_DeliversNormalizedResult(t *testing.T) {
	d := newTestDispatcher(t, &fakeRequester{response: map[string]any{"result": "ok"}}, true)

	var got []textypes.Result
	var mu sync.Mutex
	id := d.SubscribeCompleted(func(r textypes.Result) {
		mu.Lock()
		got = append(got, r)
		mu.Unlock()
	})

	d.Execute(context.Background(), "rewrite", "text")
	d.Execute(context.Background(), "frobnicate", "")

	mu.Lock()
	require.Len(t, got, 2)
	assert.Equal(t, textypes.OutcomeSuccess, got[0].Outcome)
	assert.Equal(t, textypes.OutcomeUnknownCommand, got[1].Outcome)
	mu.Unlock()

	d.Unsubscribe(id)
	d.Execute(context.Background(), "help", "")
	mu.Lock()
	assert.Len(t, got, 2, "unsubscribed callback must not fire")
	mu.Unlock()
}

func TestEligibleCommands_TracksReadiness(t *testing.T) {
	dOffline := newTestDispatcher(t, &fakeRequester{}, false)
	assert.Equal(t, []string{"help", "clear"}, dOffline.EligibleCommands())

	dOnline := newTestDispatcher(t, &fakeRequester{}, true)
	assert.Equal(t,
		[]string{"summarise", "tone", "keywords", "rephrase", "rewrite", "help", "clear"},
		dOnline.EligibleCommands())
}
