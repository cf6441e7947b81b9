package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/assign"
	"github.com/Brightline-AV/castor/internal/cache"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/api"
	"github.com/Brightline-AV/castor/internal/http/api/admin/packets"
	"github.com/Brightline-AV/castor/internal/model"
	"github.com/Brightline-AV/castor/internal/push"
	"github.com/Brightline-AV/castor/internal/screenserver"
)

type ScreenController struct {
	store    db.Store
	registry *screenserver.Registry
	assigner *assign.Assigner
	notifier *push.Client
	cache    *cache.Cache
}

// ScreenModule mounts all authenticated /screens endpoints.
func ScreenModule(store db.Store, registry *screenserver.Registry, assigner *assign.Assigner, notifier *push.Client, c *cache.Cache) api.Module {
	ctl := &ScreenController{store: store, registry: registry, assigner: assigner, notifier: notifier, cache: c}
	return api.ModuleFunc(func(m *api.Controller) {
		// CRUD
		m.GET("/screens", ctl.listScreens)
		m.POST("/screens", ctl.createScreen)
		m.GET("/screens/:id", ctl.getScreen)
		m.PUT("/screens/:id", ctl.updateScreen)
		m.DELETE("/screens/:id", ctl.deleteScreen)

		// assignment
		m.POST("/screens/:id/content", ctl.assignContent)

		// page server lifecycle
		m.POST("/screens/:id/start", ctl.startServer)
		m.POST("/screens/:id/stop", ctl.stopServer)
		m.POST("/screens/:id/update", ctl.updateServer)

		// observation
		m.GET("/screens/:id/status", ctl.screenStatus)
		m.Group.GET("/screens/:id/preview", ctl.previewPage)
	})
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := t.store.ListScreens()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		out = append(out, packets.NewScreenResponse(s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	port := 0
	if request.Port != nil {
		port = *request.Port
	} else {
		settings, err := t.store.GetSettings()
		if err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load settings"}
		}
		port, err = t.store.NextPort(settings.BasePort)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not allocate port"}
		}
	}

	screen, err := t.store.CreateScreen(request.Name, request.IPAddress, port)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create screen"}
	}
	return packets.NewScreenResponse(screen), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	screen, err := t.store.GetScreenByID(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	return packets.NewScreenResponse(screen), nil
}

// PUT /api/admin/screens/:id
func (t *ScreenController) updateScreen(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	var request packets.UpdateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := t.store.UpdateScreen(id, request.Name, request.IPAddress, request.Port); err != nil {
		if errors.Is(err, db.ErrScreenNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
		}
		log.Error().Err(err).Str("screen_id", id).Msg("database update failed for screen")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update screen"}
	}

	updated, _ := t.store.GetScreenByID(id)
	return packets.NewScreenResponse(updated), nil
}

// DELETE /api/admin/screens/:id
func (t *ScreenController) deleteScreen(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	if _, err := t.store.GetScreenByID(id); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}

	// a deleted screen must not keep a listener behind
	if t.registry.IsRunning(id) {
		if err := t.registry.Stop(ctx.Request.Context(), id); err != nil {
			log.Error().Err(err).Str("screen_id", id).Msg("could not stop server for deleted screen")
		}
	}
	t.cache.DropPage(ctx.Request.Context(), id)

	if err := t.store.DeleteScreen(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete screen"}
	}
	return gin.H{"success": "screen deleted"}, nil
}

// POST /api/admin/screens/:id/content
func (t *ScreenController) assignContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.AssignContentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	screen, err := t.assigner.Assign(ctx.Request.Context(), ctx.Param("id"), request.ContentID)
	if err != nil {
		return nil, mapAssignError(err)
	}
	return packets.NewScreenResponse(screen), nil
}

// POST /api/admin/screens/:id/start
func (t *ScreenController) startServer(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	screen, content, apiErr := t.screenWithContent(ctx.Param("id"))
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.StartServerRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
	}

	if err := t.registry.Start(ctx.Request.Context(), screen.ID, screen.Port, content, request.DisplayOptions); err != nil {
		return nil, mapServerError(err)
	}
	t.afterServe(ctx, screen.ID)
	return gin.H{"success": "server started"}, nil
}

// POST /api/admin/screens/:id/stop
func (t *ScreenController) stopServer(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")
	if err := t.registry.Stop(ctx.Request.Context(), id); err != nil {
		return nil, mapServerError(err)
	}
	t.cache.DropPage(ctx.Request.Context(), id)
	t.notifier.NotifyScreen(id, push.ActionStop)
	return gin.H{"success": "server stopped"}, nil
}

// POST /api/admin/screens/:id/update
func (t *ScreenController) updateServer(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	screen, content, apiErr := t.screenWithContent(ctx.Param("id"))
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.StartServerRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&request); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
	}

	if err := t.registry.Update(ctx.Request.Context(), screen.ID, screen.Port, content, request.DisplayOptions); err != nil {
		return nil, mapServerError(err)
	}
	t.afterServe(ctx, screen.ID)
	return gin.H{"success": "server updated"}, nil
}

// GET /api/admin/screens/:id/status
func (t *ScreenController) screenStatus(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	screen, err := t.store.GetScreenByID(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}

	running := t.registry.IsRunning(screen.ID)
	online, cached := t.cache.Status(ctx.Request.Context(), screen.ID)
	if !cached {
		online = running && screenserver.CheckLiveness(ctx.Request.Context(), screen.IPAddress, screen.Port)
	}

	return packets.ScreenStatusResponse{
		ScreenID: screen.ID,
		Running:  running,
		Online:   online,
	}, nil
}

// GET /api/admin/screens/:id/preview
// Serves the last rendered document as raw HTML, recovered from the cache or
// the persisted snapshot, so a preview works without the original admin tab.
func (t *ScreenController) previewPage(ctx *gin.Context) {
	id := ctx.Param("id")

	if html, ok := t.cache.Page(ctx.Request.Context(), id); ok {
		ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	snap, err := t.registry.Snapshot(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no rendered page for screen"})
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(snap.HTML))
}

// screenWithContent loads the screen and its assigned content record.
func (t *ScreenController) screenWithContent(id string) (model.Screen, *model.Content, *api.APIError) {
	screen, err := t.store.GetScreenByID(id)
	if err != nil {
		return model.Screen{}, nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	if screen.ContentID == nil {
		return screen, nil, nil
	}
	content, err := t.store.GetContentByID(*screen.ContentID)
	if err != nil {
		return model.Screen{}, nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}
	return screen, &content, nil
}

func (t *ScreenController) afterServe(ctx *gin.Context, screenID string) {
	if snap, err := t.registry.Snapshot(screenID); err == nil {
		t.cache.SetPage(ctx.Request.Context(), screenID, snap.HTML)
	}
	t.notifier.NotifyScreen(screenID, push.ActionRefresh)
}

func mapServerError(err error) *api.APIError {
	switch {
	case errors.Is(err, screenserver.ErrMissingContent):
		return &api.APIError{Code: http.StatusConflict, Message: "screen has no content assigned"}
	case errors.Is(err, screenserver.ErrNotRunning):
		return &api.APIError{Code: http.StatusConflict, Message: "no running server for screen"}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
}
