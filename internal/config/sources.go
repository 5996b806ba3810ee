package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	appLog "feedcal/internal/log"
	"feedcal/internal/model"
)

// ErrSourceNotFound is returned by updates/deletes of unknown source ids.
var ErrSourceNotFound = errors.New("feed source not found")

// sourcesDoc is the on-disk shape of the source store.
type sourcesDoc struct {
	Sources []model.FeedSource `yaml:"sources"`
}

// SourceStore persists FeedSource records as a single YAML document. The
// aggregation core only ever reads it; writes come from the API layer.
type SourceStore struct {
	path string
	mu   sync.Mutex
}

// NewSourceStore opens the store at path. The file may not exist yet.
func NewSourceStore(path string) *SourceStore {
	return &SourceStore{path: path}
}

// List returns all stored sources. A missing or corrupt document is an
// empty list, not an error.
func (s *SourceStore) List() []model.FeedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Create appends a source, assigning an id when the record has none, and
// returns the stored record.
func (s *SourceStore) Create(src model.FeedSource) (model.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src.ID == "" {
		src.ID = newSourceID()
	}
	if src.Kind == "" {
		src.Kind = model.KindFeed
	}

	sources := append(s.load(), src)
	if err := s.save(sources); err != nil {
		return model.FeedSource{}, err
	}
	return src, nil
}

// Update replaces the source with the given id.
func (s *SourceStore) Update(id string, src model.FeedSource) (model.FeedSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := s.load()
	for i := range sources {
		if sources[i].ID != id {
			continue
		}
		src.ID = id
		sources[i] = src
		if err := s.save(sources); err != nil {
			return model.FeedSource{}, err
		}
		return src, nil
	}
	return model.FeedSource{}, ErrSourceNotFound
}

// Delete removes the source with the given id.
func (s *SourceStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources := s.load()
	for i := range sources {
		if sources[i].ID != id {
			continue
		}
		sources = append(sources[:i], sources[i+1:]...)
		return s.save(sources)
	}
	return ErrSourceNotFound
}

func (s *SourceStore) load() []model.FeedSource {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []model.FeedSource{}
	}
	var doc sourcesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		appLog.Warn("source store document is corrupt; treating as empty", "path", s.path, "reason", err)
		return []model.FeedSource{}
	}
	if doc.Sources == nil {
		return []model.FeedSource{}
	}
	return doc.Sources
}

func (s *SourceStore) save(sources []model.FeedSource) error {
	data, err := yaml.Marshal(sourcesDoc{Sources: sources})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

func newSourceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// rand.Read on supported platforms does not fail; keep the id
		// non-empty regardless.
		return "src-00000000"
	}
	return "src-" + hex.EncodeToString(b[:])
}
