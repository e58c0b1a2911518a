package service

import (
	"context"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/circuitbreaker"
)

// BreakerNotifier wraps a notification.Notifier with a circuit breaker.
// External transports throttle hard when hammered during an outage; once the
// breaker opens, deliveries fail fast instead of stacking up retries against
// a dead channel. Callers already treat delivery failures as non-fatal.
type BreakerNotifier struct {
	inner   notification.Notifier
	breaker *circuitbreaker.CircuitBreaker
}

// NewBreakerNotifier wraps the given notifier. The onStateChange callback is
// optional and receives breaker transitions for logging.
func NewBreakerNotifier(inner notification.Notifier, onStateChange func(name string, from, to circuitbreaker.State)) *BreakerNotifier {
	return &BreakerNotifier{
		inner:   inner,
		breaker: circuitbreaker.NotifierBreaker(onStateChange),
	}
}

// SendPracticeNotice delivers through the breaker.
func (n *BreakerNotifier) SendPracticeNotice(ctx context.Context, notice notification.PracticeNotice) error {
	return n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.inner.SendPracticeNotice(ctx, notice)
	})
}

// SendMemberNotice delivers through the breaker.
func (n *BreakerNotifier) SendMemberNotice(ctx context.Context, notice notification.MemberNotice) error {
	return n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.inner.SendMemberNotice(ctx, notice)
	})
}

// SendAnomalyAlert delivers through the breaker.
func (n *BreakerNotifier) SendAnomalyAlert(ctx context.Context, alert notification.AnomalyAlert) error {
	return n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.inner.SendAnomalyAlert(ctx, alert)
	})
}

// SendAdminReport delivers through the breaker.
func (n *BreakerNotifier) SendAdminReport(ctx context.Context, report notification.AdminReport) error {
	return n.breaker.Execute(ctx, func(ctx context.Context) error {
		return n.inner.SendAdminReport(ctx, report)
	})
}

// State exposes the breaker state for the readiness probe.
func (n *BreakerNotifier) State() circuitbreaker.State {
	return n.breaker.State()
}
