package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Brightline-AV/castor/internal/model"
)

// pgStore is the PostgreSQL-backed Store, used when DATABASE_URL is set.
// Snapshot content and display options are stored as JSONB columns since they
// are denormalized copies, not relational data.
type pgStore struct {
	db *sqlx.DB
}

var _ Store = (*pgStore)(nil)

// NewPgStore connects with retries (the database container may still be
// starting) and returns the store.
func NewPgStore(databaseURL string) (Store, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second

	var conn *sqlx.DB
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err = sqlx.Connect("postgres", databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return &pgStore{db: conn}, nil
		}
		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

func notFoundOr(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// ---- users ----

func (p *pgStore) CreateUser(email, hashedPassword string, name *string) (model.User, error) {
	var u model.User
	err := p.db.Get(&u, `
		INSERT INTO users (id, email, hashed_password, name, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, email, hashed_password, name, created_at
		`, uuid.NewString(), email, hashedPassword, name)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to create user")
		return model.User{}, err
	}
	return u, nil
}

func (p *pgStore) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := p.db.Get(&u, `
		SELECT id, email, hashed_password, name, created_at
		FROM users
		WHERE email = $1
		`, email)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &u, nil
}

func (p *pgStore) GetUserByID(id string) (*model.User, error) {
	var u model.User
	err := p.db.Get(&u, `
		SELECT id, email, hashed_password, name, created_at
		FROM users
		WHERE id = $1
		`, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &u, nil
}

func (p *pgStore) UpdateUserProfile(id, email string, name *string) error {
	_, err := p.db.Exec(`
		UPDATE users
		SET email = $2,
		name = COALESCE($3, name)
		WHERE id = $1
		`, id, email, name)
	return err
}

// ---- content ----

func (p *pgStore) CreateContent(name string, typ model.ContentType, url string, htmlContent *string) (model.Content, error) {
	var c model.Content
	err := p.db.Get(&c, `
		INSERT INTO content (id, name, type, url, html_content, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, name, type, url, html_content, created_at
		`, uuid.NewString(), name, typ, url, htmlContent)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create content")
		return model.Content{}, err
	}
	return c, nil
}

func (p *pgStore) GetContentByID(id string) (model.Content, error) {
	var c model.Content
	err := p.db.Get(&c, `
		SELECT id, name, type, url, html_content, created_at
		FROM content
		WHERE id = $1
		`, id)
	return c, notFoundOr(err, ErrContentNotFound)
}

func (p *pgStore) ListContent() ([]model.Content, error) {
	var all []model.Content
	err := p.db.Select(&all, `
		SELECT id, name, type, url, html_content, created_at
		FROM content
		ORDER BY created_at, id
		`)
	return all, err
}

func (p *pgStore) UpdateContent(id string, name, url, htmlContent *string) error {
	res, err := p.db.Exec(`
		UPDATE content
		SET name = COALESCE($2, name),
		url = COALESCE($3, url),
		html_content = COALESCE($4, html_content)
		WHERE id = $1
		`, id, name, url, htmlContent)
	return requireRow(res, err, ErrContentNotFound)
}

func (p *pgStore) DeleteContent(id string) error {
	res, err := p.db.Exec(`DELETE FROM content WHERE id = $1`, id)
	return requireRow(res, err, ErrContentNotFound)
}

// ---- screens ----

func (p *pgStore) CreateScreen(name, ipAddress string, port int) (model.Screen, error) {
	var s model.Screen
	err := p.db.Get(&s, `
		INSERT INTO screens (id, name, ip_address, port, status, created_at)
		VALUES ($1, $2, $3, $4, 'offline', now())
		RETURNING id, name, ip_address, port, status, content_id, created_at
		`, uuid.NewString(), name, ipAddress, port)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create screen")
		return model.Screen{}, err
	}
	return s, nil
}

func (p *pgStore) GetScreenByID(id string) (model.Screen, error) {
	var s model.Screen
	err := p.db.Get(&s, `
		SELECT id, name, ip_address, port, status, content_id, created_at
		FROM screens
		WHERE id = $1
		`, id)
	return s, notFoundOr(err, ErrScreenNotFound)
}

func (p *pgStore) ListScreens() ([]model.Screen, error) {
	var screens []model.Screen
	err := p.db.Select(&screens, `
		SELECT id, name, ip_address, port, status, content_id, created_at
		FROM screens
		ORDER BY port
		`)
	return screens, err
}

func (p *pgStore) UpdateScreen(id string, name, ipAddress *string, port *int) error {
	res, err := p.db.Exec(`
		UPDATE screens
		SET name = COALESCE($2, name),
		ip_address = COALESCE($3, ip_address),
		port = COALESCE($4, port)
		WHERE id = $1
		`, id, name, ipAddress, port)
	return requireRow(res, err, ErrScreenNotFound)
}

func (p *pgStore) SetScreenStatus(id string, status model.ScreenStatus) error {
	res, err := p.db.Exec(`
		UPDATE screens SET status = $2 WHERE id = $1
		`, id, status)
	return requireRow(res, err, ErrScreenNotFound)
}

func (p *pgStore) AssignContentToScreen(screenID string, contentID *string) error {
	res, err := p.db.Exec(`
		UPDATE screens SET content_id = $2 WHERE id = $1
		`, screenID, contentID)
	return requireRow(res, err, ErrScreenNotFound)
}

func (p *pgStore) DetachContent(contentID string) ([]model.Screen, error) {
	var detached []model.Screen
	err := p.db.Select(&detached, `
		UPDATE screens
		SET content_id = NULL
		WHERE content_id = $1
		RETURNING id, name, ip_address, port, status, content_id, created_at
		`, contentID)
	if err != nil {
		log.Error().Err(err).Str("content_id", contentID).Msg("failed to detach content from screens")
		return nil, err
	}
	return detached, nil
}

func (p *pgStore) DeleteScreen(id string) error {
	res, err := p.db.Exec(`DELETE FROM screens WHERE id = $1`, id)
	return requireRow(res, err, ErrScreenNotFound)
}

func (p *pgStore) NextPort(base int) (int, error) {
	var next int
	err := p.db.Get(&next, `
		SELECT COALESCE(MAX(port) + 1, $1) FROM screens
		`, base)
	if err != nil {
		return 0, err
	}
	if next < base {
		next = base
	}
	return next, nil
}

// ---- playlists ----

func (p *pgStore) CreatePlaylist(name string, contentIDs []string) (model.Playlist, error) {
	pl := model.Playlist{
		ID:         uuid.NewString(),
		Name:       name,
		ContentIDs: contentIDs,
	}
	if pl.ContentIDs == nil {
		pl.ContentIDs = []string{}
	}
	tx, err := p.db.Beginx()
	if err != nil {
		return model.Playlist{}, err
	}
	defer tx.Rollback()

	if err := tx.Get(&pl.CreatedAt, `
		INSERT INTO playlists (id, name, created_at)
		VALUES ($1, $2, now())
		RETURNING created_at
		`, pl.ID, pl.Name); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create playlist")
		return model.Playlist{}, err
	}
	if err := insertPlaylistItems(tx, pl.ID, pl.ContentIDs); err != nil {
		return model.Playlist{}, err
	}
	return pl, tx.Commit()
}

func insertPlaylistItems(tx *sqlx.Tx, playlistID string, contentIDs []string) error {
	for pos, cid := range contentIDs {
		if _, err := tx.Exec(`
			INSERT INTO playlist_items (playlist_id, content_id, position)
			VALUES ($1, $2, $3)
			`, playlistID, cid, pos); err != nil {
			return err
		}
	}
	return nil
}

func (p *pgStore) GetPlaylistByID(id string) (model.Playlist, error) {
	var pl model.Playlist
	err := p.db.Get(&pl, `
		SELECT id, name, created_at FROM playlists WHERE id = $1
		`, id)
	if err != nil {
		return model.Playlist{}, notFoundOr(err, ErrPlaylistNotFound)
	}
	pl.ContentIDs = []string{}
	err = p.db.Select(&pl.ContentIDs, `
		SELECT content_id FROM playlist_items
		WHERE playlist_id = $1
		ORDER BY position
		`, id)
	return pl, err
}

func (p *pgStore) ListPlaylists() ([]model.Playlist, error) {
	var pls []model.Playlist
	if err := p.db.Select(&pls, `
		SELECT id, name, created_at FROM playlists ORDER BY created_at, id
		`); err != nil {
		return nil, err
	}
	for i := range pls {
		pls[i].ContentIDs = []string{}
		if err := p.db.Select(&pls[i].ContentIDs, `
			SELECT content_id FROM playlist_items
			WHERE playlist_id = $1
			ORDER BY position
			`, pls[i].ID); err != nil {
			return nil, err
		}
	}
	return pls, nil
}

func (p *pgStore) UpdatePlaylist(id string, name *string, contentIDs []string) error {
	tx, err := p.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE playlists SET name = COALESCE($2, name) WHERE id = $1
		`, id, name)
	if err := requireRow(res, err, ErrPlaylistNotFound); err != nil {
		return err
	}
	if contentIDs != nil {
		if _, err := tx.Exec(`DELETE FROM playlist_items WHERE playlist_id = $1`, id); err != nil {
			return err
		}
		if err := insertPlaylistItems(tx, id, contentIDs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *pgStore) DeletePlaylist(id string) error {
	res, err := p.db.Exec(`DELETE FROM playlists WHERE id = $1`, id)
	return requireRow(res, err, ErrPlaylistNotFound)
}

// ---- server snapshots ----

func (p *pgStore) SaveSnapshot(snap model.Snapshot) error {
	contentJSON, err := json.Marshal(snap.Content)
	if err != nil {
		return err
	}
	optionsJSON, err := json.Marshal(snap.DisplayOptions)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`
		INSERT INTO snapshots (screen_id, port, content, html, display_options, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (screen_id) DO UPDATE
		SET port = $2, content = $3, html = $4, display_options = $5, updated_at = now()
		`, snap.ScreenID, snap.Port, contentJSON, snap.HTML, optionsJSON)
	return err
}

func (p *pgStore) GetSnapshot(screenID string) (*model.Snapshot, error) {
	var row struct {
		ScreenID       string    `db:"screen_id"`
		Port           int       `db:"port"`
		Content        []byte    `db:"content"`
		HTML           string    `db:"html"`
		DisplayOptions []byte    `db:"display_options"`
		UpdatedAt      time.Time `db:"updated_at"`
	}
	err := p.db.Get(&row, `
		SELECT screen_id, port, content, html, display_options, updated_at
		FROM snapshots
		WHERE screen_id = $1
		`, screenID)
	if err != nil {
		return nil, notFoundOr(err, ErrScreenNotFound)
	}
	snap := model.Snapshot{
		ScreenID:  row.ScreenID,
		Port:      row.Port,
		HTML:      row.HTML,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Content, &snap.Content); err != nil {
		return nil, fmt.Errorf("decode snapshot content: %w", err)
	}
	if err := json.Unmarshal(row.DisplayOptions, &snap.DisplayOptions); err != nil {
		return nil, fmt.Errorf("decode snapshot options: %w", err)
	}
	return &snap, nil
}

func (p *pgStore) DeleteSnapshot(screenID string) error {
	res, err := p.db.Exec(`DELETE FROM snapshots WHERE screen_id = $1`, screenID)
	return requireRow(res, err, ErrScreenNotFound)
}

// ---- settings ----

func (p *pgStore) GetSettings() (model.Settings, error) {
	var s model.Settings
	err := p.db.Get(&s, `
		SELECT base_port, pin, refresh_interval FROM settings WHERE id = 1
		`)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	return s, err
}

func (p *pgStore) UpdateSettings(s model.Settings) error {
	_, err := p.db.Exec(`
		INSERT INTO settings (id, base_port, pin, refresh_interval)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET base_port = $1, pin = $2, refresh_interval = $3
		`, s.BasePort, s.PIN, s.RefreshInterval)
	return err
}

func requireRow(res sql.Result, err, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
