package screenserver_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brightline-AV/castor/internal/db"
	"github.com/Brightline-AV/castor/internal/model"
	"github.com/Brightline-AV/castor/internal/screenserver"
)

// fakeBinder records served documents without binding sockets.
type fakeBinder struct {
	mu       sync.Mutex
	pages    map[int]string
	serveErr error
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{pages: make(map[int]string)}
}

func (f *fakeBinder) Serve(port int, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.serveErr != nil {
		return f.serveErr
	}
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

func newRegistry(t *testing.T) (*screenserver.Registry, *fakeBinder, db.Store) {
	t.Helper()
	store, err := db.NewFileStore(t.TempDir())
	require.NoError(t, err)
	binder := newFakeBinder()
	return screenserver.NewRegistry(store, binder), binder, store
}

func imageContent(id, url string) *model.Content {
	return &model.Content{ID: id, Name: "img", Type: model.ContentImage, URL: url}
}

func TestStartWithoutContentFails(t *testing.T) {
	reg, binder, _ := newRegistry(t)

	err := reg.Start(context.Background(), "screen-1", 6000, nil, nil)

	assert.ErrorIs(t, err, screenserver.ErrMissingContent)
	assert.False(t, reg.IsRunning("screen-1"))
	_, bound := binder.page(6000)
	assert.False(t, bound)
}

func TestStartServesRenderedPage(t *testing.T) {
	reg, binder, _ := newRegistry(t)

	err := reg.Start(context.Background(), "screen-1", 6000, imageContent("c-1", "/uploads/a.png"), nil)
	require.NoError(t, err)

	assert.True(t, reg.IsRunning("screen-1"))
	html, bound := binder.page(6000)
	require.True(t, bound)
	assert.Contains(t, html, `src="/uploads/a.png"`)
}

func TestDoubleStartIsIdempotentNoOp(t *testing.T) {
	reg, binder, _ := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Start(ctx, "screen-1", 6000, imageContent("c-1", "/uploads/a.png"), nil))

	// second start with different content reports success but changes nothing
	err := reg.Start(ctx, "screen-1", 6000, imageContent("c-2", "/uploads/b.png"), nil)
	require.NoError(t, err)

	snap, err := reg.Snapshot("screen-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", snap.Content.ID, "still serving the first content")

	html, _ := binder.page(6000)
	assert.Contains(t, html, "/uploads/a.png")
	assert.NotContains(t, html, "/uploads/b.png")
}

func TestUpdateSwapsContentAndRerenders(t *testing.T) {
	reg, binder, _ := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Start(ctx, "screen-1", 6000, imageContent("c-1", "/uploads/a.png"), nil))

	video := &model.Content{ID: "c-2", Name: "vid", Type: model.ContentVideo, URL: "/uploads/b.mp4"}
	require.NoError(t, reg.Update(ctx, "screen-1", 6000, video, nil))

	snap, err := reg.Snapshot("screen-1")
	require.NoError(t, err)
	assert.Equal(t, "c-2", snap.Content.ID)

	html, _ := binder.page(6000)
	assert.Contains(t, html, "<video", "rendered HTML reflects the new content type")
	assert.Contains(t, html, "/uploads/b.mp4")
}

func TestStopWithoutInstanceFails(t *testing.T) {
	reg, _, _ := newRegistry(t)

	assert.False(t, reg.IsRunning("screen-1"))
	err := reg.Stop(context.Background(), "screen-1")
	assert.ErrorIs(t, err, screenserver.ErrNotRunning)
	assert.False(t, reg.IsRunning("screen-1"))
}

func TestStopReleasesPort(t *testing.T) {
	reg, binder, _ := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Start(ctx, "screen-1", 6000, imageContent("c-1", "/a.png"), nil))
	require.NoError(t, reg.Stop(ctx, "screen-1"))

	assert.False(t, reg.IsRunning("screen-1"))
	_, bound := binder.page(6000)
	assert.False(t, bound)
}

func TestSnapshotSurvivesColdStart(t *testing.T) {
	store, err := db.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := screenserver.NewRegistry(store, newFakeBinder())
	require.NoError(t, first.Start(ctx, "screen-1", 6000, imageContent("c-1", "/uploads/a.png"), nil))

	// a fresh registry over the same store recovers the document by id
	second := screenserver.NewRegistry(store, newFakeBinder())
	assert.False(t, second.IsRunning("screen-1"))

	snap, err := second.Snapshot("screen-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", snap.Content.ID)
	assert.Contains(t, snap.HTML, "/uploads/a.png")
	assert.Equal(t, 6000, snap.Port)
}

func TestRestartReusesSnapshotOptions(t *testing.T) {
	reg, binder, _ := newRegistry(t)
	ctx := context.Background()

	muted := false
	video := &model.Content{ID: "c-1", Name: "vid", Type: model.ContentVideo, URL: "/v.mp4"}
	require.NoError(t, reg.Start(ctx, "screen-1", 6000, video, &model.DisplayOverrides{Muted: &muted}))

	require.NoError(t, reg.Restart(ctx, "screen-1"))

	assert.True(t, reg.IsRunning("screen-1"))
	html, bound := binder.page(6000)
	require.True(t, bound)
	assert.NotContains(t, html, " muted ", "recorded options survive the restart")
	assert.Contains(t, html, " autoplay ")

	snap, err := reg.Snapshot("screen-1")
	require.NoError(t, err)
	assert.False(t, snap.DisplayOptions.Muted)
}

func TestRestartWithoutSnapshotFails(t *testing.T) {
	reg, _, _ := newRegistry(t)

	err := reg.Restart(context.Background(), "screen-1")
	assert.Error(t, err)
	assert.False(t, reg.IsRunning("screen-1"))
}

func TestFailedServeLeavesNoSnapshot(t *testing.T) {
	reg, binder, store := newRegistry(t)
	binder.serveErr = errors.New("port busy")

	err := reg.Start(context.Background(), "screen-1", 6000, imageContent("c-1", "/a.png"), nil)
	require.Error(t, err)
	assert.False(t, reg.IsRunning("screen-1"))

	// no durable snapshot for a page that never went live
	_, err = store.GetSnapshot("screen-1")
	assert.Error(t, err)
}

func TestDisplayOverridesReachTheRender(t *testing.T) {
	reg, binder, _ := newRegistry(t)
	ctx := context.Background()

	muted := false
	video := &model.Content{ID: "c-1", Name: "vid", Type: model.ContentVideo, URL: "/v.mp4"}
	require.NoError(t, reg.Start(ctx, "screen-1", 6000, video, &model.DisplayOverrides{Muted: &muted}))

	html, _ := binder.page(6000)
	assert.NotContains(t, html, " muted ")
	assert.Contains(t, html, " autoplay ")

	snap, err := reg.Snapshot("screen-1")
	require.NoError(t, err)
	assert.False(t, snap.DisplayOptions.Muted)
	assert.True(t, snap.DisplayOptions.Autoplay)
}
