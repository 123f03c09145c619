// Package jobs runs the gateway's background maintenance work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// TenantRefresher periodically re-warms the tenant list cache so global
// operators rarely pay the backend round trip. Singleton mode prevents
// overlapping runs when the backend is slow.
type TenantRefresher struct {
	scheduler gocron.Scheduler
	tenants   ports.TenantService
	cache     ports.TenantCache
	interval  time.Duration
	log       zerolog.Logger
}

func NewTenantRefresher(tenants ports.TenantService, cache ports.TenantCache, interval time.Duration, log zerolog.Logger) (*TenantRefresher, error) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	r := &TenantRefresher{
		scheduler: scheduler,
		tenants:   tenants,
		cache:     cache,
		interval:  interval,
		log:       log.With().Str("component", "tenant_refresh").Logger(),
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.refresh, context.Background()),
		gocron.WithName("tenant-list-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("register refresh job: %w", err)
	}

	return r, nil
}

// Start begins the schedule. The first run happens after one interval; the
// serving path fills the cache lazily until then.
func (r *TenantRefresher) Start() {
	r.scheduler.Start()
	r.log.Info().Dur("interval", r.interval).Msg("tenant refresh job scheduled")
}

// Stop shuts the scheduler down, waiting for an in-flight run to finish.
func (r *TenantRefresher) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *TenantRefresher) refresh(ctx context.Context) error {
	tenants, err := r.tenants.Tenants(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("tenant list fetch failed; keeping current cache")
		return err
	}

	if err := r.cache.SetTenantList(ctx, tenants); err != nil {
		r.log.Warn().Err(err).Msg("tenant list cache write failed")
		return err
	}

	r.log.Debug().Int("count", len(tenants)).Msg("tenant list cache refreshed")
	return nil
}
