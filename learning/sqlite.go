package learning

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	kindUse      = "use"
	kindPurchase = "purchase"
	kindHit      = "hit"
)

const schema = `
CREATE TABLE IF NOT EXISTS counters (
	kind   TEXT    NOT NULL,
	item   TEXT    NOT NULL,
	bucket INTEGER NOT NULL,
	total  INTEGER NOT NULL,
	PRIMARY KEY (kind, item, bucket)
)`

const upsert = `
INSERT INTO counters (kind, item, bucket, total) VALUES (?, ?, ?, 1)
ON CONFLICT (kind, item, bucket) DO UPDATE SET total = total + 1`

// SQLiteStore persists counters as rows, one upsert per recorded event, and
// mirrors them in memory for snapshots.
type SQLiteStore struct {
	mu  sync.Mutex
	db  *sql.DB
	agg Aggregate
}

// OpenSQLite opens or creates the database at path. A database that cannot be
// read is removed and recreated empty.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)

	s, err := openSQLite(path)
	if err == nil {
		return s, nil
	}
	log.Warn().Err(err).Str("path", path).Msg("learning database corrupt, starting fresh")
	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove corrupt learning database: %w", rmErr)
	}
	return openSQLite(path)
}

func openSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create learning directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteStore{db: db, agg: NewAggregate()}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT kind, item, bucket, total FROM counters`)
	if err != nil {
		return fmt.Errorf("load counters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, item string
		var key, count int
		if err := rows.Scan(&kind, &item, &key, &count); err != nil {
			return fmt.Errorf("scan counter: %w", err)
		}
		switch kind {
		case kindUse:
			s.agg.ItemUseFrequency[item] += count
			add(s.agg.TileItemUsage, key, item, count)
		case kindPurchase:
			add(s.agg.RoundItemPurchases, key, item, count)
		case kindHit:
			add(s.agg.ItemHits, item, key, count)
		default:
			log.Warn().Str("kind", kind).Msg("ignoring unknown counter kind")
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) record(kind, item string, key int) error {
	if _, err := s.db.Exec(upsert, kind, item, key); err != nil {
		return fmt.Errorf("record %s counter: %w", kind, err)
	}
	return nil
}

func (s *SQLiteStore) RecordItemUsed(item string, tile int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(kindUse, item, tile); err != nil {
		return err
	}
	s.agg.addUse(item, tile)
	return nil
}

func (s *SQLiteStore) RecordItemPurchased(item string, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(kindPurchase, item, round); err != nil {
		return err
	}
	s.agg.addPurchase(item, round)
	return nil
}

func (s *SQLiteStore) RecordItemHit(item string, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(kindHit, item, rank); err != nil {
		return err
	}
	s.agg.addHit(item, rank)
	return nil
}

func (s *SQLiteStore) Snapshot() Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Copy()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
