// Package store persists the site's documents as pretty-printed JSON files:
// the curated holdings and suggestions lists, and the last-known-good
// snapshots the resolver replays when upstreams fail. Every update rewrites
// the whole file through a temp-file-then-rename so readers never observe a
// torn document. Writers within the process are serialized by the store
// mutex; concurrent admin processes are out of scope (single-admin usage).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cryptotools/internal/models"
	"cryptotools/logger"
)

const (
	holdingsFile    = "holdings.json"
	suggestionsFile = "suggestions.json"
	topCoinsFile    = "top_coins_cache.json"
	basketFile      = "my_coins_cache.json"
	newsFile        = "news_cache.json"
	directoryFile   = "coingecko_list_cache.json"
)

type Store struct {
	mu  sync.Mutex
	dir string
	log *logger.Log
}

func New(dir string, log *logger.Log) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// readJSON loads the named document into v. A missing or malformed file is
// an empty store, not an error; the caller gets false and its zero value.
func (s *Store) readJSON(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithComponent("store").WithError(err).Warn("failed to read document")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.WithComponent("store").WithError(err).WithFields(logger.Fields{
			"file": name,
		}).Warn("malformed document treated as empty")
		return false
	}
	return true
}

// writeJSON rewrites the named document atomically.
func (s *Store) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// SaveTopCoins overwrites the top-coins snapshot.
func (s *Store) SaveTopCoins(coins []models.CoinQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(topCoinsFile, coins)
}

// LoadTopCoins returns the last persisted top-coins snapshot, oldest-write
// order preserved. Empty when the snapshot is missing or unreadable.
func (s *Store) LoadTopCoins() []models.CoinQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var coins []models.CoinQuote
	s.readJSON(topCoinsFile, &coins)
	return coins
}

// SaveBasket overwrites the personal-basket snapshot.
func (s *Store) SaveBasket(coins []models.CoinQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(basketFile, coins)
}

func (s *Store) LoadBasket() []models.CoinQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var coins []models.CoinQuote
	s.readJSON(basketFile, &coins)
	return coins
}

// SaveNews overwrites the news snapshot.
func (s *Store) SaveNews(items []models.NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(newsFile, items)
}

func (s *Store) LoadNews() []models.NewsItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []models.NewsItem
	s.readJSON(newsFile, &items)
	return items
}

// SaveDirectory overwrites the coin directory snapshot together with its
// refresh timestamp.
func (s *Store) SaveDirectory(directory models.CoinDirectory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(directoryFile, directory)
}

func (s *Store) LoadDirectory() (models.CoinDirectory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var directory models.CoinDirectory
	ok := s.readJSON(directoryFile, &directory)
	return directory, ok
}
