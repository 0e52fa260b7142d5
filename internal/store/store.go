// Package store keeps the best known solution per input grid in a sqlite
// key/value table. Values are gob-encoded.
package store

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vancomm/flattener/internal/terrain"
)

var (
	ErrBadName  = fmt.Errorf("bad name for store")
	ErrNotFound = fmt.Errorf("value not found")
)

type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path, name string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	s, err := New(db, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New creates the table if needed. name may only contain upper- or lowercase
// Latin letters since it is spliced into SQL.
func New(db *sql.DB, name string) (*Store, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ` + name + ` (
	key		TEXT PRIMARY KEY,
	value	BLOB
);`)
	if err != nil {
		return nil, err
	}
	return &Store{name: name, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the value stored under key into value, which must be a pointer
// or nil. If key is not present, [ErrNotFound] is returned.
func (s *Store) Get(key string, value any) error {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM `+s.name+` WHERE key = ?;`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

// Set inserts a new key-value pair or updates an existing one.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(key, value)
}

func (s *Store) set(key string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO `+s.name+` (key, value)
VALUES(?, ?)
ON CONFLICT(key)
DO UPDATE SET value=excluded.value;`,
		key, buf.Bytes())
	return err
}

// Delete removes key without checking if it existed.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM `+s.name+` WHERE key = ?;`, key)
	return err
}

// Best is the best solution recorded for one input grid.
type Best struct {
	Score int64
	Seed  uint64
	Ops   []terrain.Op
}

// SaveIfBetter stores rec under key unless an equal or better score is already
// there. It reports whether rec was written.
func (s *Store) SaveIfBetter(key string, rec Best) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur Best
	err := s.Get(key, &cur)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return false, err
	case cur.Score >= rec.Score:
		return false, nil
	}
	if err := s.set(key, rec); err != nil {
		return false, err
	}
	return true, nil
}

// Digest identifies an input grid together with the operation count it is
// solved for.
func Digest(g *terrain.Grid, k int) string {
	h := sha256.New()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(g.N()))
	h.Write(b[:])
	binary.LittleEndian.PutUint64(b[:], uint64(k))
	h.Write(b[:])
	for _, row := range g.Rows() {
		for _, v := range row {
			binary.LittleEndian.PutUint64(b[:], uint64(int64(v)))
			h.Write(b[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
