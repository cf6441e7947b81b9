// Package screenserver owns the lifecycle of per-screen page servers: at
// most one running instance per screen id, each serving one rendered
// document on its own port.
package screenserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/display"
	"github.com/Brightline-AV/castor/internal/model"
	"github.com/Brightline-AV/castor/internal/render"
)

var (
	// ErrMissingContent is returned by Start when no content is supplied; a
	// screen with nothing to show is not worth a listener.
	ErrMissingContent = errors.New("no content to serve")
	// ErrNotRunning is returned by Stop when no instance exists for the screen.
	ErrNotRunning = errors.New("no running server for screen")
)

// Registry tracks the running page server of every screen. It is an explicit
// dependency handed to its callers, never a package-level singleton, so tests
// can build isolated registries. The per-screen mutex upholds the
// at-most-one-instance invariant under true parallelism; a lost race costs a
// redundant re-render, never a corrupt state.
type Registry struct {
	store  db.Store
	binder PageBinder

	mu        sync.Mutex
	screenMu  map[string]*sync.Mutex
	instances map[string]*model.Snapshot
}

func NewRegistry(store db.Store, binder PageBinder) *Registry {
	return &Registry{
		store:     store,
		binder:    binder,
		screenMu:  make(map[string]*sync.Mutex),
		instances: make(map[string]*model.Snapshot),
	}
}

// lockScreen returns the mutex dedicated to one screen id, creating it on
// first use.
func (r *Registry) lockScreen(screenID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.screenMu[screenID]
	if !ok {
		mu = &sync.Mutex{}
		r.screenMu[screenID] = mu
	}
	return mu
}

// Start resolves options, renders the document, asks the binder to serve it
// on port, and persists the snapshot. Starting a screen that is already
// running is a success no-op: nothing changes, no port is rebound.
func (r *Registry) Start(ctx context.Context, screenID string, port int, content *model.Content, overrides *model.DisplayOverrides) error {
	mu := r.lockScreen(screenID)
	mu.Lock()
	defer mu.Unlock()

	if r.IsRunning(screenID) {
		log.Debug().Str("screen_id", screenID).Msg("server already running, start is a no-op")
		return nil
	}
	if content == nil {
		return ErrMissingContent
	}

	opts := display.Resolve(overrides)
	html := render.Page(content, opts)

	snap := model.Snapshot{
		ScreenID:       screenID,
		Port:           port,
		Content:        *content,
		HTML:           html,
		DisplayOptions: opts,
		UpdatedAt:      time.Now().UTC(),
	}

	// serve first: a snapshot must only exist for a page that went live,
	// preview reads it as the served document
	if err := r.binder.Serve(port, html); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Int("port", port).Msg("failed to serve screen page")
		return err
	}
	if err := r.store.SaveSnapshot(snap); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Msg("failed to persist server snapshot")
		if relErr := r.binder.Release(port); relErr != nil {
			log.Error().Err(relErr).Int("port", port).Msg("failed to release screen port")
		}
		return err
	}

	r.mu.Lock()
	r.instances[screenID] = &snap
	r.mu.Unlock()

	log.Info().Str("screen_id", screenID).Int("port", port).
		Str("content_id", content.ID).Str("content_type", string(content.Type)).
		Msg("screen server started")
	return nil
}

// Stop removes the registry entry and releases the port. The persisted
// snapshot stays behind for preview/recovery.
func (r *Registry) Stop(ctx context.Context, screenID string) error {
	mu := r.lockScreen(screenID)
	mu.Lock()
	defer mu.Unlock()
	return r.stopLocked(screenID)
}

func (r *Registry) stopLocked(screenID string) error {
	r.mu.Lock()
	snap, ok := r.instances[screenID]
	if ok {
		delete(r.instances, screenID)
	}
	r.mu.Unlock()

	if !ok {
		return ErrNotRunning
	}

	if err := r.binder.Release(snap.Port); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Int("port", snap.Port).Msg("failed to release screen port")
		return err
	}
	log.Info().Str("screen_id", screenID).Int("port", snap.Port).Msg("screen server stopped")
	return nil
}

// Update is stop followed by start with the new parameters. It always
// re-renders, even when the content id is unchanged, because the display
// options may have changed.
func (r *Registry) Update(ctx context.Context, screenID string, port int, content *model.Content, overrides *model.DisplayOverrides) error {
	mu := r.lockScreen(screenID)
	mu.Lock()
	defer mu.Unlock()

	if err := r.stopLocked(screenID); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	if content == nil {
		return ErrMissingContent
	}

	opts := display.Resolve(overrides)
	html := render.Page(content, opts)
	snap := model.Snapshot{
		ScreenID:       screenID,
		Port:           port,
		Content:        *content,
		HTML:           html,
		DisplayOptions: opts,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := r.binder.Serve(port, html); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Int("port", port).Msg("failed to serve screen page")
		return err
	}
	if err := r.store.SaveSnapshot(snap); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Msg("failed to persist server snapshot")
		if relErr := r.binder.Release(port); relErr != nil {
			log.Error().Err(relErr).Int("port", port).Msg("failed to release screen port")
		}
		return err
	}

	r.mu.Lock()
	r.instances[screenID] = &snap
	r.mu.Unlock()

	log.Info().Str("screen_id", screenID).Int("port", port).
		Str("content_id", content.ID).Msg("screen server updated")
	return nil
}

// Restart re-serves a screen from its snapshot, reusing the content and
// display options recorded there rather than re-resolving from defaults.
// Used when a running screen stops answering its liveness probe.
func (r *Registry) Restart(ctx context.Context, screenID string) error {
	mu := r.lockScreen(screenID)
	mu.Lock()
	defer mu.Unlock()

	snap, err := r.Snapshot(screenID)
	if err != nil {
		return err
	}
	if snap.Content.ID == "" {
		return ErrMissingContent
	}

	if err := r.stopLocked(screenID); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}

	// the recorded options are already resolved; no overlay pass here
	snap.HTML = render.Page(&snap.Content, snap.DisplayOptions)
	snap.UpdatedAt = time.Now().UTC()

	if err := r.binder.Serve(snap.Port, snap.HTML); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Int("port", snap.Port).Msg("failed to serve screen page")
		return err
	}
	if err := r.store.SaveSnapshot(*snap); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Msg("failed to persist server snapshot")
		if relErr := r.binder.Release(snap.Port); relErr != nil {
			log.Error().Err(relErr).Int("port", snap.Port).Msg("failed to release screen port")
		}
		return err
	}

	r.mu.Lock()
	r.instances[screenID] = snap
	r.mu.Unlock()

	log.Info().Str("screen_id", screenID).Int("port", snap.Port).
		Str("content_id", snap.Content.ID).Msg("screen server restarted")
	return nil
}

// IsRunning reports whether a page server exists for the screen.
func (r *Registry) IsRunning(screenID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[screenID] != nil
}

// Snapshot returns the in-memory instance when the screen is running, and
// otherwise falls back to the persisted snapshot so a preview opened on a
// cold start can recover the exact served document by id.
func (r *Registry) Snapshot(screenID string) (*model.Snapshot, error) {
	r.mu.Lock()
	if snap, ok := r.instances[screenID]; ok {
		copied := *snap
		r.mu.Unlock()
		return &copied, nil
	}
	r.mu.Unlock()
	return r.store.GetSnapshot(screenID)
}
