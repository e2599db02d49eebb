package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-grain/claude-code-kanban/internal/domain/events"
	"github.com/matt-grain/claude-code-kanban/internal/testutil"
)

func TestHubStartStop(t *testing.T) {
	h := New()
	require.NoError(t, h.Start())
	assert.True(t, h.IsRunning())

	// Starting twice is a no-op.
	require.NoError(t, h.Start())

	require.NoError(t, h.Stop())
	assert.False(t, h.IsRunning())
	require.NoError(t, h.Stop())
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	h := New()
	require.NoError(t, h.Start())
	defer func() { _ = h.Stop() }()

	a := testutil.NewMockSubscriber("a")
	b := testutil.NewMockSubscriber("b")
	h.Subscribe(a)
	h.Subscribe(b)

	require.Eventually(t, func() bool {
		return h.SubscriberCount() == 2
	}, time.Second, 5*time.Millisecond)

	h.Publish(events.NewTaskUpdateEvent("s1", events.FileChangeModified, "1.json"))

	assert.Eventually(t, func() bool {
		return a.EventCount() == 1 && b.EventCount() == 1
	}, time.Second, 5*time.Millisecond)

	got := a.Events()[0]
	assert.Equal(t, events.EventTypeTaskUpdate, got.Type())
}

func TestHubUnsubscribeClosesSubscriber(t *testing.T) {
	h := New()
	require.NoError(t, h.Start())
	defer func() { _ = h.Stop() }()

	sub := testutil.NewMockSubscriber("a")
	h.Subscribe(sub)
	require.Eventually(t, func() bool {
		return h.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	h.Unsubscribe("a")

	assert.Eventually(t, func() bool {
		return h.SubscriberCount() == 0 && sub.IsClosed()
	}, time.Second, 5*time.Millisecond)
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	h := New()
	require.NoError(t, h.Start())
	defer func() { _ = h.Stop() }()

	healthy := testutil.NewMockSubscriber("healthy")
	failing := testutil.NewFailingSubscriber("failing")
	h.Subscribe(healthy)
	h.Subscribe(failing)

	require.Eventually(t, func() bool {
		return h.SubscriberCount() == 2
	}, time.Second, 5*time.Millisecond)

	h.Publish(events.NewMetadataUpdateEvent())

	// The failing subscriber is removed; the healthy one still receives.
	assert.Eventually(t, func() bool {
		return h.SubscriberCount() == 1 && healthy.EventCount() == 1
	}, time.Second, 5*time.Millisecond)

	h.Publish(events.NewTeamUpdateEvent("alpha"))
	assert.Eventually(t, func() bool {
		return healthy.EventCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestHubStopClosesSubscribers(t *testing.T) {
	h := New()
	require.NoError(t, h.Start())

	sub := testutil.NewMockSubscriber("a")
	h.Subscribe(sub)
	require.Eventually(t, func() bool {
		return h.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Stop())
	assert.True(t, sub.IsClosed())
	assert.Equal(t, 0, h.SubscriberCount())
}

func TestPublishBeforeStartDoesNotBlock(t *testing.T) {
	h := New()
	done := make(chan struct{})
	go func() {
		// Buffered broadcast channel absorbs this without a run loop.
		h.Publish(events.NewMetadataUpdateEvent())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}
