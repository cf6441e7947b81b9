package model

import "time"

// Snapshot is the persisted state of a screen's page server: the content it
// was started with, the exact document it serves, and the options used for
// that render. It exists so a preview page opened independently of the page
// that started the server can recover the document by screen id without
// re-deriving it. It is not the source of truth for assignment.
type Snapshot struct {
	ScreenID       string         `db:"screen_id"       json:"screen_id"`
	Port           int            `db:"port"            json:"port"`
	Content        Content        `db:"-"               json:"content"`
	HTML           string         `db:"html"            json:"html"`
	DisplayOptions DisplayOptions `db:"-"               json:"display_options"`
	UpdatedAt      time.Time      `db:"updated_at"      json:"updated_at"`
}
