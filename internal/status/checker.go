// Package status reconciles a screen's cached online/offline flag with what
// the registry and the network actually report.
package status

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/cache"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/model"
	"github.com/Brightline-AV/castor/internal/screenserver"
)

type Checker struct {
	store    db.Store
	registry *screenserver.Registry
	cache    *cache.Cache // nil when Redis is not configured
}

func NewChecker(store db.Store, registry *screenserver.Registry, c *cache.Cache) *Checker {
	return &Checker{store: store, registry: registry, cache: c}
}

// Reconcile returns the screen's observed liveness. Registry state always
// wins over the previously cached status. When the registry says running but
// the ping probe misses, the status is NOT flipped on that single miss; if a
// snapshot with content is available a restart is attempted instead.
func (c *Checker) Reconcile(ctx context.Context, screen model.Screen, assumedOnline bool) bool {
	running := c.registry.IsRunning(screen.ID)

	if running != assumedOnline {
		log.Debug().Str("screen_id", screen.ID).
			Bool("assumed_online", assumedOnline).Bool("registry_running", running).
			Msg("cached status disagrees with registry")
	}
	if !running {
		return false
	}

	if screenserver.CheckLiveness(ctx, screen.IPAddress, screen.Port) {
		return true
	}

	log.Warn().Str("screen_id", screen.ID).Int("port", screen.Port).
		Msg("running screen missed liveness probe, attempting restart")

	// the restart reuses the snapshot's recorded content and options; the
	// screen keeps reporting online until the registry drops the instance
	if err := c.registry.Restart(ctx, screen.ID); err != nil {
		log.Error().Err(err).Str("screen_id", screen.ID).Msg("restart after missed probe failed")
	}
	return true
}

// Poller runs Reconcile for every screen on a fixed interval and persists
// status transitions. It stops when its context is cancelled so removing
// screens never leaks a timer.
type Poller struct {
	checker  *Checker
	store    db.Store
	interval time.Duration
}

func NewPoller(checker *Checker, store db.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{checker: checker, store: store, interval: interval}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", p.interval).Msg("status poller started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("status poller stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	screens, err := p.store.ListScreens()
	if err != nil {
		log.Error().Err(err).Msg("status sweep could not list screens")
		return
	}
	for _, screen := range screens {
		observed := p.checker.Reconcile(ctx, screen, screen.Status == model.ScreenOnline)
		p.checker.cache.SetStatus(ctx, screen.ID, observed, 2*p.interval)

		next := model.ScreenOffline
		if observed {
			next = model.ScreenOnline
		}
		if next == screen.Status {
			continue
		}
		if err := p.store.SetScreenStatus(screen.ID, next); err != nil {
			log.Error().Err(err).Str("screen_id", screen.ID).Msg("failed to persist status transition")
			continue
		}
		log.Info().Str("screen_id", screen.ID).
			Str("from", string(screen.Status)).Str("to", string(next)).
			Msg("screen status transition")
	}
}
