package packets

import "github.com/Brightline-AV/castor/internal/model"

type SignupRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     *string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

// CreateContentRequest creates a content record; the optional ScreenID
// immediately assigns the new content to that screen.
type CreateContentRequest struct {
	Name        string  `json:"name" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	URL         string  `json:"url"`
	HTMLContent *string `json:"html_content"`
	ScreenID    *string `json:"screen_id"`
}

type UpdateContentRequest struct {
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	HTMLContent *string `json:"html_content"`
}

// CreateScreenRequest registers a screen; a nil Port allocates the next free
// port above the configured base port.
type CreateScreenRequest struct {
	Name      string `json:"name" binding:"required"`
	IPAddress string `json:"ip_address" binding:"required"`
	Port      *int   `json:"port"`
}

type UpdateScreenRequest struct {
	Name      *string `json:"name"`
	IPAddress *string `json:"ip_address"`
	Port      *int    `json:"port"`
}

// AssignContentRequest binds content to a screen; a nil ContentID clears the
// assignment (and stops a running server).
type AssignContentRequest struct {
	ContentID *string `json:"content_id"`
}

// StartServerRequest starts (or updates) the screen's page server using its
// currently assigned content, with optional display option overrides.
type StartServerRequest struct {
	DisplayOptions *model.DisplayOverrides `json:"display_options"`
}

type CreatePlaylistRequest struct {
	Name       string   `json:"name" binding:"required"`
	ContentIDs []string `json:"content_ids"`
}

type UpdatePlaylistRequest struct {
	Name       *string  `json:"name"`
	ContentIDs []string `json:"content_ids"`
}

// AssignPlaylistRequest pushes a playlist to a screen. Only the first item
// actually reaches the screen today.
type AssignPlaylistRequest struct {
	PlaylistID string `json:"playlist_id" binding:"required"`
}

type AppendPlaylistItemRequest struct {
	ContentID string `json:"content_id" binding:"required"`
}

type UpdateSettingsRequest struct {
	BasePort        *int    `json:"base_port"`
	PIN             *string `json:"pin"`
	RefreshInterval *int    `json:"refresh_interval"`
}
