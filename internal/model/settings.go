package model

// Settings is the single app-level configuration record: network defaults,
// the dashboard PIN, and how often the status poller runs.
type Settings struct {
	BasePort        int    `db:"base_port"        json:"base_port"`
	PIN             string `db:"pin"              json:"pin"`
	RefreshInterval int    `db:"refresh_interval" json:"refresh_interval"` // seconds
}

// DefaultSettings are used until the dashboard saves its own.
func DefaultSettings() Settings {
	return Settings{
		BasePort:        6000,
		PIN:             "0000",
		RefreshInterval: 10,
	}
}
