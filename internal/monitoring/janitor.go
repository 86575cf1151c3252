// Package monitoring runs the reference backend's background jobs.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultJanitorSchedule runs the purge every ten minutes.
const DefaultJanitorSchedule = "*/10 * * * *"

// Janitor periodically drops revocation entries for tokens that have
// expired anyway.
type Janitor struct {
	revocations auth.RevocationStore
	cron        *cron.Cron
	now         func() time.Time
}

// NewJanitor creates a Janitor running on the given standard cron schedule.
func NewJanitor(revocations auth.RevocationStore, schedule string) (*Janitor, error) {
	j := &Janitor{
		revocations: revocations,
		cron:        cron.New(),
		now:         time.Now,
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return j, nil
}

// Run starts the schedule after one immediate purge.
func (j *Janitor) Run() {
	log.Info().Msg("Starting revocation janitor")
	j.RunOnce(context.Background())
	j.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	log.Info().Msg("Stopped revocation janitor")
}

// RunOnce purges expired revocations now.
func (j *Janitor) RunOnce(ctx context.Context) int64 {
	n, err := j.revocations.Purge(ctx, j.now())
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge revoked tokens")
		return 0
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("Janitor: purged expired revocations")
	}
	return n
}
