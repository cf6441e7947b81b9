package display_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brightline-AV/castor/internal/display"
	"github.com/Brightline-AV/castor/internal/model"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestResolveDefaults(t *testing.T) {
	opts := display.Resolve(nil)

	assert.True(t, opts.Autoplay)
	assert.True(t, opts.Loop)
	assert.True(t, opts.Controls)
	assert.True(t, opts.Muted)
	assert.False(t, opts.Fullscreen)
	assert.Equal(t, 5000, opts.Interval)
	assert.Equal(t, 5000, opts.AutoSlide)
}

func TestResolveOverlaysNotReplaces(t *testing.T) {
	opts := display.Resolve(&model.DisplayOverrides{Interval: intPtr(9999)})

	// supplied key wins
	assert.Equal(t, 9999, opts.Interval)
	// all other keys retain defaults
	assert.True(t, opts.Autoplay)
	assert.True(t, opts.Loop)
	assert.True(t, opts.Controls)
	assert.True(t, opts.Muted)
	assert.Equal(t, 5000, opts.AutoSlide)
}

func TestResolveExplicitFalseWins(t *testing.T) {
	opts := display.Resolve(&model.DisplayOverrides{
		Autoplay: boolPtr(false),
		Muted:    boolPtr(false),
	})

	assert.False(t, opts.Autoplay)
	assert.False(t, opts.Muted)
	assert.True(t, opts.Loop)
	assert.True(t, opts.Controls)
}

func TestNarrowedViews(t *testing.T) {
	opts := display.Resolve(&model.DisplayOverrides{
		AutoSlide: intPtr(1234),
		Controls:  boolPtr(false),
	})

	video := display.ForVideo(opts)
	assert.False(t, video.Controls)
	assert.True(t, video.Autoplay)

	deck := display.ForDeck(opts)
	assert.Equal(t, 1234, deck.AutoSlide)
	assert.True(t, deck.Loop)
}

func TestAsOverridesRoundTrip(t *testing.T) {
	opts := display.Defaults()
	opts.Muted = false
	opts.Fullscreen = true
	opts.Interval = 1234

	// every field is carried, so Resolve reproduces opts exactly
	assert.Equal(t, opts, display.Resolve(display.AsOverrides(opts)))
}
