package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/models"
	"hospital-assistant/internal/session"
)

type notifyCall struct {
	userID string
	query  string
}

type fakeNotifier struct {
	calls chan notifyCall
	err   error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan notifyCall, 8)}
}

func (f *fakeNotifier) Notify(_ context.Context, userID, queryText string) error {
	f.calls <- notifyCall{userID: userID, query: queryText}
	return f.err
}

func (f *fakeNotifier) waitForCall(t *testing.T) notifyCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handoff notification")
		return notifyCall{}
	}
}

func newTrigger(t *testing.T, n Notifier) (*Trigger, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(session.Options{}, logger.NewTestLogger(t))
	t.Cleanup(store.Close)
	return NewTrigger(n, store, time.Second, logger.NewTestLogger(t)), store
}

func TestDetectedAndStrip(t *testing.T) {
	assert.True(t, Detected("FORWARD_TO_HUMAN: I cannot help with that."))
	assert.True(t, Detected("prefix FORWARD_TO_HUMAN: suffix"))
	assert.False(t, Detected("Apollo Hospital is in Chennai."))

	assert.Equal(t, "I cannot help with that.",
		Strip("FORWARD_TO_HUMAN: I cannot help with that."))
	// Every occurrence goes, not just the first.
	assert.Equal(t, "a b",
		Strip("FORWARD_TO_HUMAN: a FORWARD_TO_HUMAN: b"))
}

func TestTrigger_PassThroughWithoutSentinel(t *testing.T) {
	n := newFakeNotifier()
	trig, store := newTrigger(t, n)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "user-a", models.Turn{UserText: "hi"}))

	out := trig.Process(ctx, "user-a", "hi", "Apollo Hospital is in Chennai.")
	assert.Equal(t, "Apollo Hospital is in Chennai.", out)

	// Session untouched, no notification.
	turns, err := store.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
	assert.Empty(t, n.calls)
}

func TestTrigger_SentinelStripsNotifiesAndClears(t *testing.T) {
	n := newFakeNotifier()
	trig, store := newTrigger(t, n)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "user-a", models.Turn{UserText: "hi"}))

	out := trig.Process(ctx, "user-a", "book me a flight",
		"FORWARD_TO_HUMAN: I'm sorry, I can't help with that. I am forwarding this to a human agent.")

	assert.Equal(t, "I'm sorry, I can't help with that. I am forwarding this to a human agent.", out)
	assert.NotContains(t, out, Sentinel)

	call := n.waitForCall(t)
	assert.Equal(t, "user-a", call.userID)
	assert.Equal(t, "book me a flight", call.query)
	// Exactly once.
	assert.Empty(t, n.calls)

	turns, err := store.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestTrigger_NotifyFailureStillClearsSession(t *testing.T) {
	n := newFakeNotifier()
	n.err = assert.AnError
	trig, store := newTrigger(t, n)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "user-a", models.Turn{UserText: "hi"}))

	out := trig.Process(ctx, "user-a", "query", "FORWARD_TO_HUMAN: handing off.")
	assert.Equal(t, "handing off.", out)

	n.waitForCall(t)

	turns, err := store.Snapshot(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
