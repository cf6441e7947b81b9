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
	"github.com/Brightline-AV/castor/internal/storage"
)

type ContentController struct {
	store         db.Store
	storageSystem storage.Storage
	assigner      *assign.Assigner
}

// ContentModule mounts all authenticated /content endpoints.
func ContentModule(store db.Store, storageSystem storage.Storage, assigner *assign.Assigner) api.Module {
	ctl := &ContentController{store: store, storageSystem: storageSystem, assigner: assigner}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/content", ctl.listContent)
		c.POST("/content", ctl.createContent)
		c.GET("/content/:id", ctl.getContent)
		c.PUT("/content/:id", ctl.updateContent)
		c.DELETE("/content/:id", ctl.deleteContent)

		c.POST("/content/upload", ctl.uploadAsset)
	})
}

// GET /api/admin/content
func (t *ContentController) listContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	all, err := t.store.ListContent()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	out := make([]packets.ContentResponse, 0, len(all))
	for _, c := range all {
		out = append(out, packets.NewContentResponse(c))
	}
	return out, nil
}

// POST /api/admin/content
func (t *ContentController) createContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateContentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if request.URL == "" && (request.HTMLContent == nil || *request.HTMLContent == "") {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "either url or html_content is required"}
	}

	content, err := t.store.CreateContent(request.Name, model.ContentType(request.Type), request.URL, request.HTMLContent)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create content"}
	}

	if request.ScreenID != nil {
		if _, err := t.assigner.Assign(ctx.Request.Context(), *request.ScreenID, &content.ID); err != nil {
			log.Error().Err(err).Str("screen_id", *request.ScreenID).Str("content_id", content.ID).
				Msg("failed to assign freshly created content")
			return nil, mapAssignError(err)
		}
	}

	return packets.NewContentResponse(content), nil
}

// GET /api/admin/content/:id
func (t *ContentController) getContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	content, err := t.store.GetContentByID(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}
	return packets.NewContentResponse(content), nil
}

// PUT /api/admin/content/:id
func (t *ContentController) updateContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	var request packets.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := t.store.UpdateContent(id, request.Name, request.URL, request.HTMLContent); err != nil {
		if errors.Is(err, db.ErrContentNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
		}
		log.Error().Err(err).Str("content_id", id).Msg("database update failed for content")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update content"}
	}

	updated, _ := t.store.GetContentByID(id)
	return packets.NewContentResponse(updated), nil
}

// DELETE /api/admin/content/:id
func (t *ContentController) deleteContent(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id := ctx.Param("id")

	content, err := t.store.GetContentByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	}

	// detach first so no screen keeps serving a record about to disappear
	if err := t.assigner.DetachContent(ctx.Request.Context(), id); err != nil {
		log.Error().Err(err).Str("content_id", id).Msg("failed to detach content before delete")
	}

	if err := t.store.DeleteContent(id); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete content"}
	}

	if err := t.storageSystem.DeleteFile(content.URL); err != nil {
		log.Warn().Err(err).Str("content_id", id).Str("url", content.URL).
			Msg("could not remove stored asset for deleted content")
	}

	return gin.H{"success": "content deleted"}, nil
}

// POST /api/admin/content/upload
func (t *ContentController) uploadAsset(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing file field"}
	}

	url, err := t.storageSystem.SaveFile(fileHeader, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to store uploaded asset")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store file"}
	}

	return packets.UploadResponse{URL: url}, nil
}

func mapAssignError(err error) *api.APIError {
	switch {
	case errors.Is(err, db.ErrScreenNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	case errors.Is(err, db.ErrContentNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "content not found"}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
}
