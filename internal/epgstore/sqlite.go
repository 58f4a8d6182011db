package epgstore

import (
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a reference Store backed by a local SQLite database. In a
// real deployment the service manager owns EPG persistence; this
// implementation exists so the grabber is runnable and testable
// standalone.
type SQLiteStore struct {
	db *sql.DB

	// notifyLimiter coalesces epg_updated into at most one notification
	// per 250ms, so a revolution with many upserts produces one burst of
	// notifications rather than thousands.
	notifyLimiter *rate.Limiter
	notify        func()
}

// Open creates (if necessary) the schema at path and returns a store. A
// nil onUpdate is allowed; Updated then becomes a no-op observer.
func Open(path string, onUpdate func()) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("epgstore: open %s: %w", path, err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("epgstore: create schema: %w", err)
	}
	if onUpdate == nil {
		onUpdate = func() {}
	}
	return &SQLiteStore{
		db:            db,
		notifyLimiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		notify:        onUpdate,
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS epg_channels (
			uri TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS epg_episodes (
			uri TEXT PRIMARY KEY,
			title TEXT,
			summary TEXT,
			description TEXT,
			genre INTEGER,
			season_uri TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS epg_seasons (
			uri TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS epg_broadcasts (
			channel_uri TEXT,
			start_unix INTEGER,
			stop_unix INTEGER,
			event_id INTEGER,
			episode_uri TEXT,
			PRIMARY KEY (channel_uri, start_unix, stop_unix, event_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Channel ---------------------------------------------------------------

type sqliteChannel struct{ uri string }

func (c sqliteChannel) URI() string { return c.uri }

func (s *SQLiteStore) ChannelFind(uri string, create bool) (Channel, bool, bool) {
	var got string
	err := s.db.QueryRow(`SELECT uri FROM epg_channels WHERE uri = ?`, uri).Scan(&got)
	if err == nil {
		return sqliteChannel{uri}, false, true
	}
	if err != sql.ErrNoRows || !create {
		return nil, false, false
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO epg_channels (uri) VALUES (?)`, uri); err != nil {
		return nil, false, false
	}
	return sqliteChannel{uri}, true, true
}

// --- Hash --------------------------------------------------------------

func (s *SQLiteStore) Hash(title, summary, description string) (string, bool) {
	if title == "" && summary == "" && description == "" {
		return "", false
	}
	h := sha1.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(summary))
	h.Write([]byte{0})
	h.Write([]byte(description))
	return hex.EncodeToString(h.Sum(nil)), true
}

// --- Episode -------------------------------------------------------------

type sqliteEpisode struct{ uri string }

func (e sqliteEpisode) URI() string { return e.uri }

func (s *SQLiteStore) EpisodeFindByURI(uri string, create bool) (Episode, bool) {
	var got string
	err := s.db.QueryRow(`SELECT uri FROM epg_episodes WHERE uri = ?`, uri).Scan(&got)
	if err == nil {
		return sqliteEpisode{uri}, false
	}
	if !create {
		return nil, false
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO epg_episodes (uri) VALUES (?)`, uri); err != nil {
		return nil, false
	}
	return sqliteEpisode{uri}, true
}

func (s *SQLiteStore) EpisodeSetFields(ep Episode, title, summary, description string, genre byte) bool {
	uri := ep.URI()
	res, err := s.db.Exec(`UPDATE epg_episodes SET title=?, summary=?, description=?, genre=?
		WHERE uri=? AND (title IS NOT ? OR summary IS NOT ? OR description IS NOT ? OR genre IS NOT ?)`,
		title, summary, description, genre, uri, title, summary, description, genre)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) EpisodeSetSeason(ep Episode, season Season) bool {
	res, err := s.db.Exec(`UPDATE epg_episodes SET season_uri=? WHERE uri=? AND season_uri IS NULL`,
		season.URI(), ep.URI())
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// --- Season --------------------------------------------------------------

type sqliteSeason struct{ uri string }

func (sn sqliteSeason) URI() string { return sn.uri }

func (s *SQLiteStore) SeasonFindByURI(uri string, create bool) (Season, bool) {
	var got string
	err := s.db.QueryRow(`SELECT uri FROM epg_seasons WHERE uri = ?`, uri).Scan(&got)
	if err == nil {
		return sqliteSeason{uri}, false
	}
	if !create {
		return nil, false
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO epg_seasons (uri) VALUES (?)`, uri); err != nil {
		return nil, false
	}
	return sqliteSeason{uri}, true
}

// --- Broadcast -----------------------------------------------------------

type sqliteBroadcast struct {
	channelURI             string
	start, stop            int64
	eventID                uint16
}

func (b sqliteBroadcast) URI() string {
	return fmt.Sprintf("%s-%d-%d-%d", b.channelURI, b.start, b.stop, b.eventID)
}

func (s *SQLiteStore) BroadcastFindByTime(ch Channel, start, stop time.Time, eventID uint16, create bool) (Broadcast, bool) {
	b := sqliteBroadcast{channelURI: ch.URI(), start: start.Unix(), stop: stop.Unix(), eventID: eventID}
	var got int64
	err := s.db.QueryRow(`SELECT start_unix FROM epg_broadcasts
		WHERE channel_uri=? AND start_unix=? AND stop_unix=? AND event_id=?`,
		b.channelURI, b.start, b.stop, b.eventID).Scan(&got)
	if err == nil {
		return b, false
	}
	if !create {
		return nil, false
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO epg_broadcasts
		(channel_uri, start_unix, stop_unix, event_id) VALUES (?, ?, ?, ?)`,
		b.channelURI, b.start, b.stop, b.eventID)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *SQLiteStore) BroadcastSetEpisode(b Broadcast, ep Episode) bool {
	bc, ok := b.(sqliteBroadcast)
	if !ok {
		return false
	}
	res, err := s.db.Exec(`UPDATE epg_broadcasts SET episode_uri=?
		WHERE channel_uri=? AND start_unix=? AND stop_unix=? AND event_id=? AND (episode_uri IS NULL OR episode_uri != ?)`,
		ep.URI(), bc.channelURI, bc.start, bc.stop, bc.eventID, ep.URI())
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// --- Updated ---------------------------------------------------------------

func (s *SQLiteStore) Updated() {
	if !s.notifyLimiter.Allow() {
		return
	}
	s.notify()
}
