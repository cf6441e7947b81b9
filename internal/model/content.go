package model

import "time"

// ContentType selects the rendering branch for a piece of content.
// The type is fixed at creation; changing it requires re-rendering any
// screen the content is assigned to.
type ContentType string

const (
	ContentImage        ContentType = "image"
	ContentVideo        ContentType = "video"
	ContentPowerPoint   ContentType = "powerpoint"
	ContentPDF          ContentType = "pdf"
	ContentHTML         ContentType = "html"
	ContentGoogleSlides ContentType = "google-slides"
)

type Content struct {
	ID          string      `db:"id"           json:"id"`
	Name        string      `db:"name"         json:"name"`
	Type        ContentType `db:"type"         json:"type"`
	URL         string      `db:"url"          json:"url"`
	HTMLContent *string     `db:"html_content" json:"html_content,omitempty"`
	CreatedAt   time.Time   `db:"created_at"   json:"created_at"`
}
