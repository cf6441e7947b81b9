package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/assign"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/api"
	"github.com/Brightline-AV/castor/internal/http/api/admin/packets"
	"github.com/Brightline-AV/castor/internal/model"
)

type PlaylistController struct {
	store    db.Store
	assigner *assign.Assigner
}

// PlaylistModule mounts all authenticated /playlists endpoints.
func PlaylistModule(store db.Store, assigner *assign.Assigner) api.Module {
	ctl := &PlaylistController{store: store, assigner: assigner}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PUT("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)
		c.POST("/playlists/:id/items", ctl.appendItem)

		c.POST("/screens/:id/playlist", ctl.assignPlaylistToScreen)
	})
}

// GET /api/admin/playlists
func (t *PlaylistController) listPlaylists(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := t.store.ListPlaylists()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	out := make([]packets.PlaylistResponse, 0, len(all))
	for _, p := range all {
		out = append(out, packets.NewPlaylistResponse(p))
	}
	return out, nil
}

// POST /api/admin/playlists
func (t *PlaylistController) createPlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	for _, cid := range request.ContentIDs {
		if _, err := t.store.GetContentByID(cid); err != nil {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found: " + cid}
		}
	}

	playlist, err := t.store.CreatePlaylist(request.Name, request.ContentIDs)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create playlist"}
	}
	return packets.NewPlaylistResponse(playlist), nil
}

// GET /api/admin/playlists/:id
func (t *PlaylistController) getPlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	playlist, err := t.store.GetPlaylistByID(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	return packets.NewPlaylistResponse(playlist), nil
}

// PUT /api/admin/playlists/:id
func (t *PlaylistController) updatePlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	var request packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := t.store.UpdatePlaylist(id, request.Name, request.ContentIDs); err != nil {
		if errors.Is(err, db.ErrPlaylistNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
		}
		log.Error().Err(err).Str("playlist_id", id).Msg("database update failed for playlist")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update playlist"}
	}

	updated, _ := t.store.GetPlaylistByID(id)
	return packets.NewPlaylistResponse(updated), nil
}

// DELETE /api/admin/playlists/:id
func (t *PlaylistController) deletePlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := t.store.DeletePlaylist(ctx.Param("id")); err != nil {
		if errors.Is(err, db.ErrPlaylistNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete playlist"}
	}
	return gin.H{"success": "playlist deleted"}, nil
}

// POST /api/admin/playlists/:id/items
func (t *PlaylistController) appendItem(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	var request packets.AppendPlaylistItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	playlist, err := t.store.GetPlaylistByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	if _, err := t.store.GetContentByID(request.ContentID); err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}

	items := append(playlist.ContentIDs, request.ContentID)
	if err := t.store.UpdatePlaylist(id, nil, items); err != nil {
		log.Error().Err(err).Str("playlist_id", id).Msg("failed to append playlist item")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update playlist"}
	}

	updated, _ := t.store.GetPlaylistByID(id)
	return packets.NewPlaylistResponse(updated), nil
}

// POST /api/admin/screens/:id/playlist
// Only the first playlist item actually reaches the screen; the playlist is
// dashboard-side grouping, not a schedule.
func (t *PlaylistController) assignPlaylistToScreen(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.AssignPlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	playlist, err := t.store.GetPlaylistByID(request.PlaylistID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "playlist not found"}
	}
	if len(playlist.ContentIDs) == 0 {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "playlist is empty"}
	}

	screen, err := t.assigner.Assign(ctx.Request.Context(), ctx.Param("id"), &playlist.ContentIDs[0])
	if err != nil {
		return nil, mapAssignError(err)
	}
	return packets.NewScreenResponse(screen), nil
}
