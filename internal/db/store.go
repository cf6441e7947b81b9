// exposes a Store interface that is passed to API calls and to the
// screen-server pipeline; implementations are the JSON file store (default)
// and the PostgreSQL store.
package db

import (
	"errors"

	"github.com/Brightline-AV/castor/internal/model"
)

var (
	ErrScreenNotFound   = errors.New("screen not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrUserNotFound     = errors.New("user not found")
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id string) (*model.User, error)
	UpdateUserProfile(id, email string, name *string) error

	// content functions
	CreateContent(name string, typ model.ContentType, url string, htmlContent *string) (model.Content, error)
	GetContentByID(id string) (model.Content, error)
	ListContent() ([]model.Content, error)
	UpdateContent(id string, name, url, htmlContent *string) error
	DeleteContent(id string) error

	// screen functions
	CreateScreen(name, ipAddress string, port int) (model.Screen, error)
	GetScreenByID(id string) (model.Screen, error)
	ListScreens() ([]model.Screen, error)
	UpdateScreen(id string, name, ipAddress *string, port *int) error
	SetScreenStatus(id string, status model.ScreenStatus) error
	AssignContentToScreen(screenID string, contentID *string) error
	// DetachContent clears the content reference from every screen pointing at
	// contentID and returns the screens that were detached. Best effort: the
	// per-screen writes are not transactional across records.
	DetachContent(contentID string) ([]model.Screen, error)
	DeleteScreen(id string) error
	// NextPort returns the next free screen port at or above base.
	NextPort(base int) (int, error)

	// playlist functions
	CreatePlaylist(name string, contentIDs []string) (model.Playlist, error)
	GetPlaylistByID(id string) (model.Playlist, error)
	ListPlaylists() ([]model.Playlist, error)
	UpdatePlaylist(id string, name *string, contentIDs []string) error
	DeletePlaylist(id string) error

	// server snapshot functions (recovery/preview only, never authoritative)
	SaveSnapshot(snap model.Snapshot) error
	GetSnapshot(screenID string) (*model.Snapshot, error)
	DeleteSnapshot(screenID string) error

	// app settings
	GetSettings() (model.Settings, error)
	UpdateSettings(s model.Settings) error
}
