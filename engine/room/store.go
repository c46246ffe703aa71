package room

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the store has no room with the requested name.
var ErrNotFound = errors.New("room not found in store")

// Store holds authored rooms in the layout export format.
type Store interface {
	// Load returns the layout and metadata for a room.
	//
	// Parameters:
	//   - ctx: bounds the query
	//   - name: the room name
	//
	// Returns:
	//   - Layout: the authored layout
	//   - *Metadata: the authored metadata, nil when none was saved
	//   - error: ErrNotFound, or a read or decode error
	Load(ctx context.Context, name string) (Layout, *Metadata, error)

	// Save inserts or replaces a room.
	Save(ctx context.Context, l Layout, meta *Metadata) error

	// Delete removes a room. Missing rooms are not an error.
	Delete(ctx context.Context, name string) error

	// List returns every stored room name.
	List(ctx context.Context) ([]string, error)

	Close() error
}

type sqliteStore struct {
	db *sql.DB

	mu  *sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Store = &sqliteStore{}

// OpenStore opens (creating if needed) a SQLite room store.
//
// Parameters:
//   - path: the database file; ":memory:" for an in-memory store
//
// Returns:
//   - Store: the opened store
//   - error: if the database or codecs cannot be initialized
func OpenStore(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty room store path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS rooms (
			name TEXT PRIMARY KEY,
			layout BLOB NOT NULL,
			metadata TEXT,
			updated_at INTEGER NOT NULL
		);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init room store: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, mu: &sync.Mutex{}, enc: enc, dec: dec}, nil
}

func (s *sqliteStore) Load(ctx context.Context, name string) (Layout, *Metadata, error) {
	var blob []byte
	var metaText sql.NullString
	row := s.db.QueryRowContext(ctx, "SELECT layout, metadata FROM rooms WHERE name = ?", name)
	if err := row.Scan(&blob, &metaText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Layout{}, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Layout{}, nil, fmt.Errorf("load room %s: %w", name, err)
	}

	s.mu.Lock()
	raw, err := s.dec.DecodeAll(blob, nil)
	s.mu.Unlock()
	if err != nil {
		return Layout{}, nil, fmt.Errorf("decompress room %s: %w", name, err)
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return Layout{}, nil, fmt.Errorf("decode room %s: %w", name, err)
	}

	var meta *Metadata
	if metaText.Valid && metaText.String != "" {
		meta = &Metadata{}
		if err := json.Unmarshal([]byte(metaText.String), meta); err != nil {
			return Layout{}, nil, fmt.Errorf("decode room %s metadata: %w", name, err)
		}
	}
	return l, meta, nil
}

func (s *sqliteStore) Save(ctx context.Context, l Layout, meta *Metadata) error {
	if l.Name == "" {
		return fmt.Errorf("save room: empty name")
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	blob := s.enc.EncodeAll(raw, nil)
	s.mu.Unlock()

	var metaText sql.NullString
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		metaText = sql.NullString{String: string(b), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms(name, layout, metadata, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET layout = excluded.layout, metadata = excluded.metadata, updated_at = excluded.updated_at`,
		l.Name, blob, metaText, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save room %s: %w", l.Name, err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rooms WHERE name = ?", name)
	return err
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM rooms ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error {
	s.dec.Close()
	return errors.Join(s.enc.Close(), s.db.Close())
}

// WriteArchive writes a layout as a zstd-compressed JSON document.
//
// Parameters:
//   - w: the destination
//   - l: the layout
//
// Returns:
//   - error: if encoding or compression fails
func WriteArchive(w io.Writer, l Layout) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(l); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadArchive decompresses a layout archive and returns the raw JSON document.
func ReadArchive(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
