package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/pkg/jobs"
)

func TestAlertGateCooldown(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := base
	gate := newAlertGate(15 * time.Minute)
	gate.now = func() time.Time { return now }

	assert.True(t, gate.allow("a1"))
	assert.False(t, gate.allow("a1"))

	// A different appointment has its own window.
	assert.True(t, gate.allow("a2"))

	now = base.Add(14 * time.Minute)
	assert.False(t, gate.allow("a1"))

	now = base.Add(15 * time.Minute)
	assert.True(t, gate.allow("a1"))
}

type channelNotifier struct {
	mu       sync.Mutex
	received []models.RiskAlert
	done     chan struct{}
}

func (n *channelNotifier) Notify(_ context.Context, alert models.RiskAlert) error {
	n.mu.Lock()
	n.received = append(n.received, alert)
	n.mu.Unlock()
	select {
	case n.done <- struct{}{}:
	default:
	}
	return nil
}

func TestQueueAlertDispatcherDelivers(t *testing.T) {
	notifier := &channelNotifier{done: make(chan struct{}, 1)}
	dispatcher := NewQueueAlertDispatcher(notifier, jobs.QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	dispatcher.Dispatch(models.RiskAlert{
		AppointmentID: "a1",
		RiskScore:     0.8,
		RiskLevel:     models.RiskHigh,
	})

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not delivered")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.received, 1)
	assert.Equal(t, "a1", notifier.received[0].AppointmentID)
}

func TestQueueAlertDispatcherUnstartedSwallowsError(t *testing.T) {
	notifier := &channelNotifier{done: make(chan struct{}, 1)}
	dispatcher := NewQueueAlertDispatcher(notifier, jobs.QueueConfig{})

	// Enqueue before Start fails internally; Dispatch must not panic.
	dispatcher.Dispatch(models.RiskAlert{AppointmentID: "a1"})
}

func TestLoggingNotifier(t *testing.T) {
	n := NewLoggingNotifier(nil)
	err := n.Notify(context.Background(), models.RiskAlert{AppointmentID: "a1", RiskLevel: models.RiskHigh})
	assert.NoError(t, err)
}
