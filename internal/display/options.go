// Package display resolves the rendering options used for one screen page.
package display

import "github.com/Brightline-AV/castor/internal/model"

// Defaults returns the fixed default option bag every render starts from.
func Defaults() model.DisplayOptions {
	return model.DisplayOptions{
		Autoplay:  true,
		Loop:      true,
		Controls:  true,
		Muted:     true,
		Interval:  5000,
		AutoSlide: 5000,
	}
}

// Resolve overlays user overrides on the defaults. Any supplied key wins,
// unset keys keep the default. No per-type pruning happens here: the renderer
// reads only the keys its branch cares about. Total; never fails.
func Resolve(overrides *model.DisplayOverrides) model.DisplayOptions {
	opts := Defaults()
	if overrides == nil {
		return opts
	}
	if overrides.Autoplay != nil {
		opts.Autoplay = *overrides.Autoplay
	}
	if overrides.Loop != nil {
		opts.Loop = *overrides.Loop
	}
	if overrides.Controls != nil {
		opts.Controls = *overrides.Controls
	}
	if overrides.Muted != nil {
		opts.Muted = *overrides.Muted
	}
	if overrides.Fullscreen != nil {
		opts.Fullscreen = *overrides.Fullscreen
	}
	if overrides.Interval != nil {
		opts.Interval = *overrides.Interval
	}
	if overrides.AutoSlide != nil {
		opts.AutoSlide = *overrides.AutoSlide
	}
	return opts
}

// AsOverrides converts a resolved option set back into override form with
// every field set, so re-rendering through Resolve reproduces the same
// options instead of the defaults.
func AsOverrides(o model.DisplayOptions) *model.DisplayOverrides {
	return &model.DisplayOverrides{
		Autoplay:   &o.Autoplay,
		Loop:       &o.Loop,
		Controls:   &o.Controls,
		Muted:      &o.Muted,
		Fullscreen: &o.Fullscreen,
		Interval:   &o.Interval,
		AutoSlide:  &o.AutoSlide,
	}
}

// VideoOptions is the subset the video branch reads.
type VideoOptions struct {
	Autoplay bool
	Loop     bool
	Controls bool
	Muted    bool
}

// DeckOptions is the subset the slide-deck branch reads.
type DeckOptions struct {
	AutoSlide int
	Loop      bool
}

// ForVideo narrows a resolved option set to the keys the video tag uses.
func ForVideo(o model.DisplayOptions) VideoOptions {
	return VideoOptions{
		Autoplay: o.Autoplay,
		Loop:     o.Loop,
		Controls: o.Controls,
		Muted:    o.Muted,
	}
}

// ForDeck narrows a resolved option set to the keys the deck viewer uses.
func ForDeck(o model.DisplayOptions) DeckOptions {
	return DeckOptions{
		AutoSlide: o.AutoSlide,
		Loop:      o.Loop,
	}
}
