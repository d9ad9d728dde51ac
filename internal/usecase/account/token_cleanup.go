package account

import (
	"context"
	"time"

	domainAccount "raisevoice/internal/domain/account"
	"raisevoice/internal/logger"

	"go.uber.org/zap"
)

// StartTokenCleanupJob periodically deletes refresh tokens that expired more
// than retainFor ago. It blocks until ctx is cancelled, so run it in its own
// goroutine.
func StartTokenCleanupJob(ctx context.Context, repo domainAccount.RefreshTokenRepository, interval, retainFor time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Refresh token cleanup job started",
		zap.Duration("interval", interval),
		zap.Duration("retain_for", retainFor),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Refresh token cleanup job stopped")
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx, retainFor); err != nil {
				logger.Error("Failed to delete expired refresh tokens", zap.Error(err))
				continue
			}
			logger.Debug("Expired refresh tokens deleted")
		}
	}
}
