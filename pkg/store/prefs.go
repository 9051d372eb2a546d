// Package store persists client preferences in BadgerDB and, optionally, server games in Postgres.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	appName        = "chessterm"
	keyPreferences = "preferences"
	keyGamePrefix  = "game/"
)

// Preferences are the client settings remembered between runs.
type Preferences struct {
	Server     string    `json:"server"`
	Transport  string    `json:"transport"`
	Gestures   string    `json:"gestures"`
	Theme      string    `json:"theme"`
	Flip       bool      `json:"flip"`
	LastGame   string    `json:"last_game"`
	LastPlayed time.Time `json:"last_played"`
}

func DefaultPreferences() *Preferences {
	return &Preferences{
		Server:    "http://localhost:8080",
		Transport: "http",
		Gestures:  "click",
		Theme:     "basic",
	}
}

// Prefs wraps BadgerDB for client-side storage.
type Prefs struct {
	db *badger.DB
}

// DataDir returns ~/.local/share/chessterm (or $XDG_DATA_HOME/chessterm), creating it if needed.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, appName, "db")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// OpenPrefs opens the preference database in dir. An empty dir keeps everything in memory.
func OpenPrefs(dir string) (*Prefs, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Prefs{db: db}, nil
}

func (p *Prefs) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Prefs) Save(prefs *Preferences) error {
	prefs.LastPlayed = time.Now()
	return p.put(keyPreferences, prefs)
}

// Load returns the stored preferences, or the defaults when nothing has been saved yet.
func (p *Prefs) Load() (*Preferences, error) {
	prefs := DefaultPreferences()
	if _, err := p.get(keyPreferences, prefs); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

// GameNote is what the client remembers about a game it played.
type GameNote struct {
	ID        string    `json:"id"`
	Server    string    `json:"server"`
	Placement string    `json:"placement"`
	Status    string    `json:"status"`
	Updated   time.Time `json:"updated"`
}

// RememberGame records the latest known state of a game.
func (p *Prefs) RememberGame(note GameNote) error {
	note.Updated = time.Now()
	return p.put(keyGamePrefix+note.ID, note)
}

// Game returns the note for id, or false when there is none.
func (p *Prefs) Game(id string) (GameNote, bool, error) {
	var note GameNote
	found, err := p.get(keyGamePrefix+id, &note)
	return note, found, err
}

// Games lists every remembered game.
func (p *Prefs) Games() ([]GameNote, error) {
	var notes []GameNote
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyGamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var note GameNote
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &note)
			}); err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return nil
	})
	return notes, err
}

func (p *Prefs) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (p *Prefs) get(key string, v any) (bool, error) {
	found := false
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}
