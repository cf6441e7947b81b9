package model

import "time"

// ScreenStatus is a cached liveness flag, not authoritative; the registry
// state always wins during reconciliation.
type ScreenStatus string

const (
	ScreenOnline  ScreenStatus = "online"
	ScreenOffline ScreenStatus = "offline"
)

// Screen represents a display device in the system. Each screen serves its
// rendered page on its own port; ports are allocated sequentially from the
// configured base port and are unique within one deployment.
type Screen struct {
	ID        string       `db:"id"         json:"id"`
	Name      string       `db:"name"       json:"name"`
	IPAddress string       `db:"ip_address" json:"ip_address"`
	Port      int          `db:"port"       json:"port"`
	Status    ScreenStatus `db:"status"     json:"status"`
	ContentID *string      `db:"content_id" json:"content_id,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
