package endpoints_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brightline-AV/castor/internal/assign"
	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/http/api"
	"github.com/Brightline-AV/castor/internal/http/api/admin/endpoints"
	"github.com/Brightline-AV/castor/internal/http/middleware"
	"github.com/Brightline-AV/castor/internal/screenserver"
	"github.com/Brightline-AV/castor/internal/storage"
)

const testSecret = "test-secret"

type fakeBinder struct {
	mu    sync.Mutex
	pages map[int]string
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{pages: make(map[int]string)}
}

func (f *fakeBinder) Serve(port int, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[port] = html
	return nil
}

func (f *fakeBinder) Release(port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pages[port]; !ok {
		return fmt.Errorf("port %d is not bound", port)
	}
	delete(f.pages, port)
	return nil
}

func (f *fakeBinder) page(port int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	html, ok := f.pages[port]
	return html, ok
}

type app struct {
	router *gin.Engine
	token  string
	store  db.Store
	binder *fakeBinder
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := db.NewFileStore(t.TempDir())
	require.NoError(t, err)

	binder := newFakeBinder()
	registry := screenserver.NewRegistry(store, binder)
	assigner := assign.NewAssigner(store, registry, nil)
	files := storage.NewLocalStorage(t.TempDir(), "/uploads")

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		endpoints.AuthPublicModule(testSecret, store),
	)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: testSecret,
		Store:     store,
	},
		endpoints.AuthSessionModule(testSecret, store),
		endpoints.ContentModule(store, files, assigner),
		endpoints.ScreenModule(store, registry, assigner, nil, nil),
		endpoints.PlaylistModule(store, assigner),
		endpoints.SettingsModule(store),
	)

	hashed, err := middleware.HashPassword("hunter2boogaloo")
	require.NoError(t, err)
	user, err := store.CreateUser("admin@example.com", hashed, nil)
	require.NoError(t, err)
	token, err := middleware.GenerateJWT(user.ID, testSecret)
	require.NoError(t, err)

	return &app{router: r, token: token, store: store, binder: binder}
}

func (a *app) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestAuthRequired(t *testing.T) {
	a := newApp(t)
	a.token = ""

	w := a.do(t, http.MethodGet, "/api/admin/screens", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupLoginProfile(t *testing.T) {
	a := newApp(t)
	a.token = ""

	w := a.do(t, http.MethodPost, "/api/admin/auth/signup", gin.H{
		"email": "new@example.com", "password": "longenoughpw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// duplicate email is rejected
	w = a.do(t, http.MethodPost, "/api/admin/auth/signup", gin.H{
		"email": "new@example.com", "password": "longenoughpw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/admin/auth/login", gin.H{
		"email": "new@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, "/api/admin/auth/login", gin.H{
		"email": "new@example.com", "password": "longenoughpw",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	a.token = login.Token
	w = a.do(t, http.MethodGet, "/api/admin/auth/current_profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new@example.com")
}

func TestContentCRUD(t *testing.T) {
	a := newApp(t)

	// neither url nor html_content
	w := a.do(t, http.MethodPost, "/api/admin/content", gin.H{
		"name": "poster", "type": "image",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/admin/content", gin.H{
		"name": "poster", "type": "image", "url": "/uploads/a.png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)

	w = a.do(t, http.MethodGet, "/api/admin/content/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/uploads/a.png")

	w = a.do(t, http.MethodPut, "/api/admin/content/"+created.ID, gin.H{"name": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "renamed")

	w = a.do(t, http.MethodDelete, "/api/admin/content/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/admin/content/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateScreenAllocatesPorts(t *testing.T) {
	a := newApp(t)

	var first, second struct {
		ID   string `json:"id"`
		Port int    `json:"port"`
	}

	w := a.do(t, http.MethodPost, "/api/admin/screens", gin.H{
		"name": "one", "ip_address": "10.0.0.1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &first)
	assert.Equal(t, 6000, first.Port, "first screen takes the base port")

	w = a.do(t, http.MethodPost, "/api/admin/screens", gin.H{
		"name": "two", "ip_address": "10.0.0.2",
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &second)
	assert.Equal(t, 6001, second.Port)

	// explicit port wins over allocation
	w = a.do(t, http.MethodPost, "/api/admin/screens", gin.H{
		"name": "three", "ip_address": "10.0.0.3", "port": 7500,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var third struct {
		Port int `json:"port"`
	}
	decode(t, w, &third)
	assert.Equal(t, 7500, third.Port)
}

func TestAssignContentEndpoint(t *testing.T) {
	a := newApp(t)

	screen, err := a.store.CreateScreen("lobby", "10.0.0.5", 6000)
	require.NoError(t, err)
	content, err := a.store.CreateContent("poster", "image", "/uploads/a.png", nil)
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/content", gin.H{
		"content_id": content.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		ContentID *string `json:"content_id"`
	}
	decode(t, w, &resp)
	require.NotNil(t, resp.ContentID)
	assert.Equal(t, content.ID, *resp.ContentID)

	// unknown content is a distinct 404
	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/content", gin.H{
		"content_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "content not found")

	// unknown screen too
	w = a.do(t, http.MethodPost, "/api/admin/screens/missing/content", gin.H{
		"content_id": content.ID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "screen not found")

	// null content_id clears the assignment
	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/content", gin.H{
		"content_id": nil,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Nil(t, resp.ContentID)
}

func TestServerLifecycleEndpoints(t *testing.T) {
	a := newApp(t)

	screen, err := a.store.CreateScreen("lobby", "127.0.0.1", 6000)
	require.NoError(t, err)

	// no content assigned yet
	w := a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no content assigned")

	content, err := a.store.CreateContent("poster", "image", "/uploads/a.png", nil)
	require.NoError(t, err)
	require.NoError(t, a.store.AssignContentToScreen(screen.ID, &content.ID))

	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	html, bound := a.binder.page(6000)
	require.True(t, bound)
	assert.Contains(t, html, "/uploads/a.png")

	// preview serves the rendered document raw
	w = a.do(t, http.MethodGet, "/api/admin/screens/"+screen.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/uploads/a.png")

	// status reflects the registry
	w = a.do(t, http.MethodGet, "/api/admin/screens/"+screen.ID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)

	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, bound = a.binder.page(6000)
	assert.False(t, bound)

	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/stop", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartWithDisplayOverrides(t *testing.T) {
	a := newApp(t)

	screen, err := a.store.CreateScreen("lobby", "10.0.0.5", 6000)
	require.NoError(t, err)
	content, err := a.store.CreateContent("clip", "video", "/uploads/b.mp4", nil)
	require.NoError(t, err)
	require.NoError(t, a.store.AssignContentToScreen(screen.ID, &content.ID))

	w := a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/start", gin.H{
		"display_options": gin.H{"muted": false},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	html, bound := a.binder.page(6000)
	require.True(t, bound)
	assert.NotContains(t, html, " muted ")
	assert.Contains(t, html, " autoplay ")
}

func TestPlaylistAssignPushesFirstItem(t *testing.T) {
	a := newApp(t)

	first, err := a.store.CreateContent("a", "image", "/a.png", nil)
	require.NoError(t, err)
	second, err := a.store.CreateContent("b", "image", "/b.png", nil)
	require.NoError(t, err)
	screen, err := a.store.CreateScreen("lobby", "10.0.0.5", 6000)
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/admin/playlists", gin.H{
		"name": "rotation", "content_ids": []string{first.ID, second.ID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var playlist struct {
		ID string `json:"id"`
	}
	decode(t, w, &playlist)

	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/playlist", gin.H{
		"playlist_id": playlist.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		ContentID *string `json:"content_id"`
	}
	decode(t, w, &resp)
	require.NotNil(t, resp.ContentID)
	assert.Equal(t, first.ID, *resp.ContentID)

	// playlists referencing unknown content are rejected
	w = a.do(t, http.MethodPost, "/api/admin/playlists", gin.H{
		"name": "broken", "content_ids": []string{"missing"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// empty playlists cannot be pushed
	w = a.do(t, http.MethodPost, "/api/admin/playlists", gin.H{"name": "empty"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &playlist)
	w = a.do(t, http.MethodPost, "/api/admin/screens/"+screen.ID+"/playlist", gin.H{
		"playlist_id": playlist.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAppendPlaylistItem(t *testing.T) {
	a := newApp(t)

	first, err := a.store.CreateContent("a", "image", "/a.png", nil)
	require.NoError(t, err)
	second, err := a.store.CreateContent("b", "image", "/b.png", nil)
	require.NoError(t, err)
	playlist, err := a.store.CreatePlaylist("rotation", []string{first.ID})
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/admin/playlists/"+playlist.ID+"/items", gin.H{
		"content_id": second.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		ContentIDs []string `json:"content_ids"`
	}
	decode(t, w, &resp)
	assert.Equal(t, []string{first.ID, second.ID}, resp.ContentIDs)

	w = a.do(t, http.MethodPost, "/api/admin/playlists/"+playlist.ID+"/items", gin.H{
		"content_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	a := newApp(t)

	w := a.do(t, http.MethodGet, "/api/admin/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings struct {
		BasePort        int    `json:"base_port"`
		PIN             string `json:"pin"`
		RefreshInterval int    `json:"refresh_interval"`
	}
	decode(t, w, &settings)
	assert.Equal(t, 6000, settings.BasePort)
	assert.Equal(t, "0000", settings.PIN)

	w = a.do(t, http.MethodPut, "/api/admin/settings", gin.H{"base_port": 7000})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/admin/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &settings)
	assert.Equal(t, 7000, settings.BasePort)
	assert.Equal(t, 10, settings.RefreshInterval, "untouched settings survive")
}
