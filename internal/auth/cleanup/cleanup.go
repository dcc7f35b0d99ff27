package cleanup

import (
	"context"
	"time"

	"github.com/ventionteams/medfast-credentials/internal/common/logger"
	"github.com/ventionteams/medfast-credentials/internal/observability/metrics"
)

const (
	StoreRefreshTokens   = "refresh_tokens"
	StoreEphemeralTokens = "ephemeral_tokens"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartCleanup sweeps expired rows every interval until ctx is done.
func StartCleanup(ctx context.Context, deleter ExpiredDeleter, interval time.Duration, log *logger.Logger, store string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := deleter.DeleteExpired(ctx)
			if err != nil {
				log.Errorf("%s cleanup failed: %v", store, err)
				continue
			}
			if deleted > 0 {
				metrics.TokensCleanupDeleted.WithLabelValues(store).Add(float64(deleted))
				log.Infof("%s cleanup: deleted %d expired tokens", store, deleted)
			}
		}
	}
}
