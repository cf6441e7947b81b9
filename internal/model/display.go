package model

// DisplayOptions is the fully resolved option set used for one render.
// The renderer reads only the keys relevant to the content type branch;
// irrelevant keys are carried but ignored.
type DisplayOptions struct {
	Autoplay   bool `json:"autoplay"`
	Loop       bool `json:"loop"`
	Controls   bool `json:"controls"`
	Muted      bool `json:"muted"`
	Fullscreen bool `json:"fullscreen"`
	// Interval is the slideshow interval in milliseconds.
	Interval int `json:"interval"`
	// AutoSlide is the per-slide advance time for deck viewers, in milliseconds.
	AutoSlide int `json:"autoSlide"`
}

// DisplayOverrides carries user-supplied option overrides. A nil field keeps
// the default; a set field wins (shallow overlay, never replacement).
type DisplayOverrides struct {
	Autoplay   *bool `json:"autoplay,omitempty"`
	Loop       *bool `json:"loop,omitempty"`
	Controls   *bool `json:"controls,omitempty"`
	Muted      *bool `json:"muted,omitempty"`
	Fullscreen *bool `json:"fullscreen,omitempty"`
	Interval   *int  `json:"interval,omitempty"`
	AutoSlide  *int  `json:"autoSlide,omitempty"`
}
