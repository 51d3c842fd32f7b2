package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/pkg/jobs"
)

// AlertNotifier receives risk alerts bound for the external notification
// system. The scheduling core stops at this boundary; it never formats
// email or SMS text.
type AlertNotifier interface {
	Notify(ctx context.Context, alert models.RiskAlert) error
}

// LoggingNotifier records alerts to the log. It stands in for the real
// notification integration, which lives outside this service.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs the notifier.
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

// Notify logs the alert.
func (n *LoggingNotifier) Notify(_ context.Context, alert models.RiskAlert) error {
	n.logger.Warn("high no-show risk detected",
		zap.String("appointment_id", alert.AppointmentID),
		zap.Float64("risk_score", alert.RiskScore),
		zap.String("risk_level", string(alert.RiskLevel)))
	return nil
}

// DefaultAlertCooldown suppresses repeat alerts for the same appointment.
const DefaultAlertCooldown = 15 * time.Minute

// alertGate deduplicates alerts per appointment within a cooldown window so
// a flapping risk score cannot produce an alert storm.
type alertGate struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

func newAlertGate(cooldown time.Duration) *alertGate {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &alertGate{
		lastSent: make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// allow reports whether an alert for the appointment may fire now, and if
// so records the emission time.
func (g *alertGate) allow(appointmentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if last, ok := g.lastSent[appointmentID]; ok && now.Sub(last) < g.cooldown {
		return false
	}
	g.lastSent[appointmentID] = now
	return true
}

// QueueAlertDispatcher pushes alerts through the in-memory job queue so a
// slow notifier never blocks risk assessment.
type QueueAlertDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueAlertDispatcher wires a notifier behind an async worker queue.
// Call Start before dispatching and Stop on shutdown.
func NewQueueAlertDispatcher(notifier AlertNotifier, cfg jobs.QueueConfig) *QueueAlertDispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		alert, ok := job.Payload.(models.RiskAlert)
		if !ok {
			logger.Warn("alert job carried unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		return notifier.Notify(ctx, alert)
	}
	return &QueueAlertDispatcher{
		queue:  jobs.NewQueue("risk-alerts", handler, cfg),
		logger: logger,
	}
}

// Start launches the queue workers.
func (d *QueueAlertDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *QueueAlertDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues an alert. Enqueue failures are logged and swallowed;
// alerting is advisory and must never fail a scheduling call.
func (d *QueueAlertDispatcher) Dispatch(alert models.RiskAlert) {
	err := d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "risk-alert",
		Payload: alert,
	})
	if err != nil {
		d.logger.Warn("failed to enqueue risk alert",
			zap.String("appointment_id", alert.AppointmentID),
			zap.Error(err))
	}
}
