/**
 * @description
 * Scheduled job implementations for the card service.
 */
package app

import (
	"context"
	"log/slog"
)

// SubscriptionExpirer defines the store operation the expiry job needs.
type SubscriptionExpirer interface {
	ExpireLapsedSubscriptions(ctx context.Context) (int64, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo   SubscriptionExpirer
	logger *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo SubscriptionExpirer, logger *slog.Logger) *Jobs {
	return &Jobs{repo: repo, logger: logger}
}

// ExpireSubscriptions flips active subscriptions whose period has ended to
// expired. Users see the change on their next bundle refetch.
func (j *Jobs) ExpireSubscriptions() {
	j.logger.Info("starting subscription expiry job")
	ctx := context.Background()

	expired, err := j.repo.ExpireLapsedSubscriptions(ctx)
	if err != nil {
		j.logger.Error("failed to expire lapsed subscriptions", "error", err)
		return
	}

	j.logger.Info("subscription expiry job finished", "expired", expired)
}
