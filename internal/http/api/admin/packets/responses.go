package packets

import (
	"time"

	"github.com/Brightline-AV/castor/internal/model"
)

// ScreenResponse mirrors model.Screen but flattens times to RFC3339.
type ScreenResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	IPAddress string  `json:"ip_address"`
	Port      int     `json:"port"`
	Status    string  `json:"status"`
	ContentID *string `json:"content_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func NewScreenResponse(s model.Screen) ScreenResponse {
	return ScreenResponse{
		ID:        s.ID,
		Name:      s.Name,
		IPAddress: s.IPAddress,
		Port:      s.Port,
		Status:    string(s.Status),
		ContentID: s.ContentID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

type ContentResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	HTMLContent *string `json:"html_content,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func NewContentResponse(c model.Content) ContentResponse {
	return ContentResponse{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		URL:         c.URL,
		HTMLContent: c.HTMLContent,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

type PlaylistResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ContentIDs []string `json:"content_ids"`
	CreatedAt  string   `json:"created_at"`
}

func NewPlaylistResponse(p model.Playlist) PlaylistResponse {
	return PlaylistResponse{
		ID:         p.ID,
		Name:       p.Name,
		ContentIDs: p.ContentIDs,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// ScreenStatusResponse reports both the registry's view and the probe's view.
type ScreenStatusResponse struct {
	ScreenID string `json:"screen_id"`
	Running  bool   `json:"running"`
	Online   bool   `json:"online"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type SettingsResponse struct {
	BasePort        int    `json:"base_port"`
	PIN             string `json:"pin"`
	RefreshInterval int    `json:"refresh_interval"`
}
