package learning

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore keeps the aggregate in memory and rewrites a JSON file after every
// recorded event. An empty path keeps everything in memory.
type FileStore struct {
	mu   sync.Mutex
	path string
	agg  Aggregate
}

// NewFileStore loads path. A missing or unreadable file is not an error: the
// store starts from empty counters.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path, agg: NewAggregate()}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("path", path).Msg("no learning file, starting fresh")
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("learning file unreadable, starting fresh")
	default:
		var agg Aggregate
		if err := json.Unmarshal(data, &agg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("learning file corrupt, starting fresh")
			break
		}
		agg.normalize()
		s.agg = agg
		log.Info().Str("path", path).Msgf("loaded learning data with %d item uses", total(agg.ItemUseFrequency))
	}
	return s
}

func (s *FileStore) RecordItemUsed(item string, tile int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agg.addUse(item, tile)
	return s.save()
}

func (s *FileStore) RecordItemPurchased(item string, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agg.addPurchase(item, round)
	return s.save()
}

func (s *FileStore) RecordItemHit(item string, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agg.addHit(item, rank)
	return s.save()
}

func (s *FileStore) Snapshot() Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Copy()
}

func (s *FileStore) Close() error {
	return nil
}

// save writes to a sibling temp file and renames it over the target so a
// crash never leaves a half-written document behind.
func (s *FileStore) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.agg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode learning data: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create learning directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp learning file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write learning data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write learning data: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace learning file: %w", err)
	}
	return nil
}

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
