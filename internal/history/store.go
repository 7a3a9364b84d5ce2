// Package history persists finished-session records to a yaml file so past
// summaries survive restarts. The UI layer appends and removes records; the
// session manager never touches this store.
package history

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mahakjain123456/feynman-mirror/internal/config"
)

// Record is one finished session.
type Record struct {
	ID        string    `yaml:"id"`
	Timestamp time.Time `yaml:"timestamp"`
	Topic     string    `yaml:"topic"`
	Summary   string    `yaml:"summary"`
	Score     float64   `yaml:"score"`
}

// Store persists session records.
type Store interface {
	// Append stores a new record and returns it with its generated id.
	Append(topic, summary string, score float64) (Record, error)
	// Get returns one record by id.
	Get(id string) (Record, bool)
	// List returns all records, newest first.
	List() ([]Record, error)
	// Remove deletes one record by id. Removing a missing id is a no-op.
	Remove(id string) error
}

type fileStore struct {
	logger *zap.Logger
	path   string

	mu    sync.Mutex
	cache *lru.Cache[string, Record]
}

// NewStore creates a file-backed Store with an LRU read cache in front of it.
// The backing file is created lazily on first append.
func NewStore(logger *zap.Logger, cfg *config.Config) (Store, error) {
	cache, err := lru.New[string, Record](cfg.History.CacheSize)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		logger: logger.Named("history"),
		path:   cfg.History.File,
		cache:  cache,
	}, nil
}

func (s *fileStore) Append(topic, summary string, score float64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Topic:     topic,
		Summary:   summary,
		Score:     score,
	}
	records = append(records, rec)

	if err := s.save(records); err != nil {
		return Record{}, err
	}

	s.cache.Add(rec.ID, rec)
	s.logger.Info("Session record appended",
		zap.String("id", rec.ID), zap.String("topic", topic))

	return rec, nil
}

func (s *fileStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.cache.Get(id); ok {
		return rec, true
	}

	records, err := s.load()
	if err != nil {
		s.logger.Warn("Failed to load history", zap.Error(err))

		return Record{}, false
	}

	for _, rec := range records {
		if rec.ID == id {
			s.cache.Add(id, rec)

			return rec, true
		}
	}

	return Record{}, false
}

func (s *fileStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	return records, nil
}

func (s *fileStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}

	if err := s.save(kept); err != nil {
		return err
	}

	s.cache.Remove(id)
	s.logger.Info("Session record removed", zap.String("id", id))

	return nil
}

func (s *fileStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return records, nil
}

func (s *fileStore) save(records []Record) error {
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}
