package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/model"
)

// fileStore persists one JSON file per record, one directory per entity kind:
//
//	<root>/content/<id>.json
//	<root>/screens/<id>.json
//	<root>/playlists/<id>.json
//	<root>/snapshots/<screen id>.json
//	<root>/users/<id>.json
//	<root>/config.json
//
// Writes go through a temp file and rename so a crash never leaves a
// half-written record behind. There are no transactional guarantees across
// records.
type fileStore struct {
	root string
	mu   sync.RWMutex
}

var _ Store = (*fileStore)(nil)

const (
	dirContent   = "content"
	dirScreens   = "screens"
	dirPlaylists = "playlists"
	dirSnapshots = "snapshots"
	dirUsers     = "users"
)

// NewFileStore creates the entity directories under root and returns a
// ready-to-use store.
func NewFileStore(root string) (Store, error) {
	for _, d := range []string{dirContent, dirScreens, dirPlaylists, dirSnapshots, dirUsers} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", d, err)
		}
	}
	log.Info().Str("root", root).Msg("using JSON file store")
	return &fileStore{root: root}, nil
}

func (f *fileStore) recordPath(kind, id string) string {
	return filepath.Join(f.root, kind, id+".json")
}

// writeRecord marshals v and atomically replaces <kind>/<id>.json.
func (f *fileStore) writeRecord(kind, id string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", kind, id, err)
	}
	path := f.recordPath(kind, id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s %s: %w", kind, id, err)
	}
	return os.Rename(tmp, path)
}

func (f *fileStore) readRecord(kind, id string, v any, notFound error) error {
	data, err := os.ReadFile(f.recordPath(kind, id))
	if os.IsNotExist(err) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("read %s %s: %w", kind, id, err)
	}
	return json.Unmarshal(data, v)
}

func (f *fileStore) deleteRecord(kind, id string, notFound error) error {
	err := os.Remove(f.recordPath(kind, id))
	if os.IsNotExist(err) {
		return notFound
	}
	return err
}

// listIDs returns the record ids in a kind directory, sorted for
// deterministic listings.
func (f *fileStore) listIDs(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, kind))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ---- users ----

func (f *fileStore) CreateUser(email, hashedPassword string, name *string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := model.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
		Name:           name,
		CreatedAt:      time.Now().UTC(),
	}
	if err := f.writeRecord(dirUsers, u.ID, u); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to create user")
		return model.User{}, err
	}
	return u, nil
}

func (f *fileStore) GetUserByEmail(email string) (*model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids, err := f.listIDs(dirUsers)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		var u model.User
		if err := f.readRecord(dirUsers, id, &u, ErrUserNotFound); err != nil {
			continue
		}
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fileStore) GetUserByID(id string) (*model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var u model.User
	if err := f.readRecord(dirUsers, id, &u, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &u, nil
}

func (f *fileStore) UpdateUserProfile(id, email string, name *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var u model.User
	if err := f.readRecord(dirUsers, id, &u, ErrUserNotFound); err != nil {
		return err
	}
	u.Email = email
	if name != nil {
		u.Name = name
	}
	return f.writeRecord(dirUsers, id, u)
}

// ---- content ----

func (f *fileStore) CreateContent(name string, typ model.ContentType, url string, htmlContent *string) (model.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Content{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        typ,
		URL:         url,
		HTMLContent: htmlContent,
		CreatedAt:   time.Now().UTC(),
	}
	if err := f.writeRecord(dirContent, c.ID, c); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create content")
		return model.Content{}, err
	}
	return c, nil
}

func (f *fileStore) GetContentByID(id string) (model.Content, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var c model.Content
	err := f.readRecord(dirContent, id, &c, ErrContentNotFound)
	return c, err
}

func (f *fileStore) ListContent() ([]model.Content, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids, err := f.listIDs(dirContent)
	if err != nil {
		return nil, err
	}
	all := make([]model.Content, 0, len(ids))
	for _, id := range ids {
		var c model.Content
		if err := f.readRecord(dirContent, id, &c, ErrContentNotFound); err != nil {
			log.Error().Err(err).Str("content_id", id).Msg("skipping unreadable content record")
			continue
		}
		all = append(all, c)
	}
	return all, nil
}

func (f *fileStore) UpdateContent(id string, name, url, htmlContent *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c model.Content
	if err := f.readRecord(dirContent, id, &c, ErrContentNotFound); err != nil {
		return err
	}
	if name != nil {
		c.Name = *name
	}
	if url != nil {
		c.URL = *url
	}
	if htmlContent != nil {
		c.HTMLContent = htmlContent
	}
	return f.writeRecord(dirContent, id, c)
}

func (f *fileStore) DeleteContent(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteRecord(dirContent, id, ErrContentNotFound)
}

// ---- screens ----

func (f *fileStore) CreateScreen(name, ipAddress string, port int) (model.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := model.Screen{
		ID:        uuid.NewString(),
		Name:      name,
		IPAddress: ipAddress,
		Port:      port,
		Status:    model.ScreenOffline,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.writeRecord(dirScreens, s.ID, s); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create screen")
		return model.Screen{}, err
	}
	return s, nil
}

func (f *fileStore) GetScreenByID(id string) (model.Screen, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var s model.Screen
	err := f.readRecord(dirScreens, id, &s, ErrScreenNotFound)
	return s, err
}

func (f *fileStore) ListScreens() ([]model.Screen, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.listScreensLocked()
}

func (f *fileStore) listScreensLocked() ([]model.Screen, error) {
	ids, err := f.listIDs(dirScreens)
	if err != nil {
		return nil, err
	}
	all := make([]model.Screen, 0, len(ids))
	for _, id := range ids {
		var s model.Screen
		if err := f.readRecord(dirScreens, id, &s, ErrScreenNotFound); err != nil {
			log.Error().Err(err).Str("screen_id", id).Msg("skipping unreadable screen record")
			continue
		}
		all = append(all, s)
	}
	return all, nil
}

func (f *fileStore) UpdateScreen(id string, name, ipAddress *string, port *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s model.Screen
	if err := f.readRecord(dirScreens, id, &s, ErrScreenNotFound); err != nil {
		return err
	}
	if name != nil {
		s.Name = *name
	}
	if ipAddress != nil {
		s.IPAddress = *ipAddress
	}
	if port != nil {
		s.Port = *port
	}
	return f.writeRecord(dirScreens, id, s)
}

func (f *fileStore) SetScreenStatus(id string, status model.ScreenStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s model.Screen
	if err := f.readRecord(dirScreens, id, &s, ErrScreenNotFound); err != nil {
		return err
	}
	s.Status = status
	return f.writeRecord(dirScreens, id, s)
}

func (f *fileStore) AssignContentToScreen(screenID string, contentID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s model.Screen
	if err := f.readRecord(dirScreens, screenID, &s, ErrScreenNotFound); err != nil {
		return err
	}
	s.ContentID = contentID
	return f.writeRecord(dirScreens, screenID, s)
}

func (f *fileStore) DetachContent(contentID string) ([]model.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	screens, err := f.listScreensLocked()
	if err != nil {
		return nil, err
	}
	var detached []model.Screen
	for _, s := range screens {
		if s.ContentID == nil || *s.ContentID != contentID {
			continue
		}
		s.ContentID = nil
		if err := f.writeRecord(dirScreens, s.ID, s); err != nil {
			log.Error().Err(err).Str("screen_id", s.ID).Msg("failed to detach content from screen")
			continue
		}
		detached = append(detached, s)
	}
	return detached, nil
}

func (f *fileStore) DeleteScreen(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteRecord(dirScreens, id, ErrScreenNotFound)
}

func (f *fileStore) NextPort(base int) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	screens, err := f.listScreensLocked()
	if err != nil {
		return 0, err
	}
	next := base
	for _, s := range screens {
		if s.Port >= next {
			next = s.Port + 1
		}
	}
	return next, nil
}

// ---- playlists ----

func (f *fileStore) CreatePlaylist(name string, contentIDs []string) (model.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := model.Playlist{
		ID:         uuid.NewString(),
		Name:       name,
		ContentIDs: contentIDs,
		CreatedAt:  time.Now().UTC(),
	}
	if p.ContentIDs == nil {
		p.ContentIDs = []string{}
	}
	if err := f.writeRecord(dirPlaylists, p.ID, p); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create playlist")
		return model.Playlist{}, err
	}
	return p, nil
}

func (f *fileStore) GetPlaylistByID(id string) (model.Playlist, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var p model.Playlist
	err := f.readRecord(dirPlaylists, id, &p, ErrPlaylistNotFound)
	return p, err
}

func (f *fileStore) ListPlaylists() ([]model.Playlist, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids, err := f.listIDs(dirPlaylists)
	if err != nil {
		return nil, err
	}
	all := make([]model.Playlist, 0, len(ids))
	for _, id := range ids {
		var p model.Playlist
		if err := f.readRecord(dirPlaylists, id, &p, ErrPlaylistNotFound); err != nil {
			log.Error().Err(err).Str("playlist_id", id).Msg("skipping unreadable playlist record")
			continue
		}
		all = append(all, p)
	}
	return all, nil
}

func (f *fileStore) UpdatePlaylist(id string, name *string, contentIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var p model.Playlist
	if err := f.readRecord(dirPlaylists, id, &p, ErrPlaylistNotFound); err != nil {
		return err
	}
	if name != nil {
		p.Name = *name
	}
	if contentIDs != nil {
		p.ContentIDs = contentIDs
	}
	return f.writeRecord(dirPlaylists, id, p)
}

func (f *fileStore) DeletePlaylist(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteRecord(dirPlaylists, id, ErrPlaylistNotFound)
}

// ---- server snapshots ----

func (f *fileStore) SaveSnapshot(snap model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeRecord(dirSnapshots, snap.ScreenID, snap)
}

func (f *fileStore) GetSnapshot(screenID string) (*model.Snapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var snap model.Snapshot
	if err := f.readRecord(dirSnapshots, screenID, &snap, ErrScreenNotFound); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (f *fileStore) DeleteSnapshot(screenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteRecord(dirSnapshots, screenID, ErrScreenNotFound)
}

// ---- settings ----

func (f *fileStore) GetSettings() (model.Settings, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, err := os.ReadFile(filepath.Join(f.root, "config.json"))
	if os.IsNotExist(err) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("read config: %w", err)
	}
	var s model.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, fmt.Errorf("parse config: %w", err)
	}
	return s, nil
}

func (f *fileStore) UpdateSettings(s model.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.root, "config.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}
