// Package assign binds content records to screens and keeps any running
// page server in step with the assignment.
package assign

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/display"
	"github.com/Brightline-AV/castor/internal/model"
	"github.com/Brightline-AV/castor/internal/push"
	"github.com/Brightline-AV/castor/internal/screenserver"
)

type Assigner struct {
	store    db.Store
	registry *screenserver.Registry
	notifier *push.Client // nil when MQTT is not configured
}

func NewAssigner(store db.Store, registry *screenserver.Registry, notifier *push.Client) *Assigner {
	return &Assigner{store: store, registry: registry, notifier: notifier}
}

// Assign binds contentID to the screen, or clears the assignment when
// contentID is nil. A cleared screen must not keep serving stale content, so
// a running server is stopped. When the assignment changes under a running
// server the server is updated in place so viewers see the change without a
// manual restart; with no server running the assignment is only recorded.
func (a *Assigner) Assign(ctx context.Context, screenID string, contentID *string) (model.Screen, error) {
	screen, err := a.store.GetScreenByID(screenID)
	if err != nil {
		return model.Screen{}, err
	}

	if contentID == nil {
		if err := a.store.AssignContentToScreen(screenID, nil); err != nil {
			return model.Screen{}, err
		}
		if a.registry.IsRunning(screenID) {
			if err := a.registry.Stop(ctx, screenID); err != nil {
				log.Error().Err(err).Str("screen_id", screenID).Msg("failed to stop server after clearing assignment")
			}
			a.notifier.NotifyScreen(screenID, push.ActionStop)
		}
		screen.ContentID = nil
		log.Info().Str("screen_id", screenID).Msg("cleared content assignment")
		return screen, nil
	}

	// distinct failure from the screen lookup: db.ErrContentNotFound
	content, err := a.store.GetContentByID(*contentID)
	if err != nil {
		return model.Screen{}, err
	}

	changed := screen.ContentID == nil || *screen.ContentID != content.ID

	if err := a.store.AssignContentToScreen(screenID, &content.ID); err != nil {
		return model.Screen{}, err
	}
	screen.ContentID = &content.ID

	if changed && a.registry.IsRunning(screenID) {
		// keep the options the running server was started with
		var overrides *model.DisplayOverrides
		if snap, err := a.registry.Snapshot(screenID); err == nil {
			overrides = display.AsOverrides(snap.DisplayOptions)
		}
		if err := a.registry.Update(ctx, screenID, screen.Port, &content, overrides); err != nil {
			log.Error().Err(err).Str("screen_id", screenID).Str("content_id", content.ID).
				Msg("failed to update running server with new content")
			return model.Screen{}, err
		}
		a.notifier.NotifyScreen(screenID, push.ActionRefresh)
	}

	log.Info().Str("screen_id", screenID).Str("content_id", content.ID).
		Bool("server_updated", changed && a.registry.IsRunning(screenID)).
		Msg("assigned content to screen")
	return screen, nil
}

// DetachContent clears contentID from every screen referencing it and stops
// any of their running servers. Invoked on content delete so screens never
// keep serving a record that no longer exists; cleanup is best effort.
func (a *Assigner) DetachContent(ctx context.Context, contentID string) error {
	detached, err := a.store.DetachContent(contentID)
	if err != nil {
		return err
	}
	for _, screen := range detached {
		if !a.registry.IsRunning(screen.ID) {
			continue
		}
		if err := a.registry.Stop(ctx, screen.ID); err != nil {
			log.Error().Err(err).Str("screen_id", screen.ID).Msg("failed to stop server for detached screen")
			continue
		}
		a.notifier.NotifyScreen(screen.ID, push.ActionStop)
	}
	return nil
}
