// Package jobs contains the studio's scheduled job implementations.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/member"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/notification"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/internal/domain/shared"
	"github.com/boksaemstudio/boksaem-yoga-app-sub002/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRING MEMBERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpiringMembersJob sweeps the member roster once a day and reminds members
// whose membership ends today. It runs at 13:00 Seoul time, after the morning
// classes settle, so the front desk can follow up on renewals the same
// afternoon.
type ExpiringMembersJob struct {
	memberRepo member.Repository
	notifier   notification.Notifier
	publisher  shared.EventPublisher
	logger     *slog.Logger

	config ExpiringMembersConfig

	lastRunStats atomic.Value // *ExpiringMembersStats
}

// ExpiringMembersConfig contains configuration for the expiry sweep.
type ExpiringMembersConfig struct {
	// Enabled toggles the sweep without unregistering the job.
	Enabled bool

	// Concurrency is the number of notices to send in parallel.
	Concurrency int

	// Timeout is the maximum duration for one sweep.
	Timeout time.Duration
}

// DefaultExpiringMembersConfig returns sensible defaults.
func DefaultExpiringMembersConfig() ExpiringMembersConfig {
	return ExpiringMembersConfig{
		Enabled:     true,
		Concurrency: 5,
		Timeout:     5 * time.Minute,
	}
}

// ExpiringMembersStats contains statistics from one sweep.
type ExpiringMembersStats struct {
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	Date            string
	MembersFound    int
	NoticesSent     int
	NoticesFailed   int
	EventsPublished int
}

// NewExpiringMembersJob creates the expiry sweep job.
func NewExpiringMembersJob(
	memberRepo member.Repository,
	notifier notification.Notifier,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config ExpiringMembersConfig,
) *ExpiringMembersJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}

	return &ExpiringMembersJob{
		memberRepo: memberRepo,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger.With("job", "expiring_members"),
		config:     config,
	}
}

// Name returns the job name.
func (j *ExpiringMembersJob) Name() string {
	return "expiring_members"
}

// Description returns a human-readable description.
func (j *ExpiringMembersJob) Description() string {
	return "Reminds members whose membership expires today"
}

// Run executes one sweep over today's expiring memberships.
func (j *ExpiringMembersJob) Run(ctx context.Context) error {
	if !j.config.Enabled {
		j.logger.Info("expiry sweep is disabled")
		return nil
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	startedAt := time.Now()
	stats := &ExpiringMembersStats{
		StartedAt: startedAt,
		Date:      timeutil.TodayDate(),
	}

	members, err := j.memberRepo.FindExpiringOn(ctx, stats.Date)
	if err != nil {
		return fmt.Errorf("find expiring members: %w", err)
	}

	stats.MembersFound = len(members)
	j.logger.Info("expiry sweep started",
		"date", stats.Date,
		"members_found", stats.MembersFound,
	)

	if stats.MembersFound > 0 {
		j.notifyConcurrently(ctx, members, stats)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("expiry sweep completed",
		"date", stats.Date,
		"duration", stats.Duration.String(),
		"sent", stats.NoticesSent,
		"failed", stats.NoticesFailed,
	)

	return nil
}

// notifyConcurrently publishes the expiry event and sends the reminder notice
// for each member, bounded by the configured concurrency.
func (j *ExpiringMembersJob) notifyConcurrently(ctx context.Context, members []*member.Member, stats *ExpiringMembersStats) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, m := range members {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(m *member.Member) {
			defer wg.Done()
			defer func() { <-semaphore }()

			published := j.publishExpiring(m)
			err := j.sendReminder(ctx, m)

			mu.Lock()
			defer mu.Unlock()

			if published {
				stats.EventsPublished++
			}
			if err != nil {
				stats.NoticesFailed++
				j.logger.Error("expiry reminder failed",
					"member_id", m.ID,
					"error", err,
				)
			} else {
				stats.NoticesSent++
			}
		}(m)
	}

	wg.Wait()
}

// publishExpiring emits the expiry event for downstream subscribers.
func (j *ExpiringMembersJob) publishExpiring(m *member.Member) bool {
	event := shared.NewMembershipExpiringEvent(m.ID, m.Name, m.EndDate, m.Language.String())
	if err := j.publisher.Publish(event); err != nil {
		j.logger.Warn("expiry event publish failed",
			"member_id", m.ID,
			"error", err,
		)
		return false
	}
	return true
}

// sendReminder delivers the renewal reminder in the member's language.
func (j *ExpiringMembersJob) sendReminder(ctx context.Context, m *member.Member) error {
	lang := m.Language.String()
	notice := notification.MemberNotice{
		MemberID:   m.ID,
		MemberName: m.Name,
		Language:   lang,
		Kind:       notification.KindMembershipExpiring,
		Message:    notification.NoticeText(notification.KindMembershipExpiring, lang),
	}
	return j.notifier.SendMemberNotice(ctx, notice)
}

// LastRunStats returns statistics from the last sweep.
func (j *ExpiringMembersJob) LastRunStats() *ExpiringMembersStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ExpiringMembersStats)
}
