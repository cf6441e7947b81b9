package model

import "time"

// Playlist is an ordered group of content. Only the first item is ever
// pushed to a screen today; the rest is bookkeeping for the dashboard.
type Playlist struct {
	ID         string    `db:"id"         json:"id"`
	Name       string    `db:"name"       json:"name"`
	ContentIDs []string  `db:"-"          json:"content_ids"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
