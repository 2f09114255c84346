// Package cache keeps ranked stream lists between CLI invocations.
//
// Hoster links expire, so every entry carries its own deadline and the
// whole file is never trusted blindly.
package cache

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/filesystem"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/source"
	"github.com/streamscout/streamscout/where"
)

type entry struct {
	Streams []source.ExtractedStream `json:"streams"`
	Expires time.Time                `json:"expires"`
}

// Store maps MediaReference.CacheKey() to a stream list.
type Store struct {
	internal *gache.Cache[map[string]*entry]
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

// New creates a store persisted at path.
func New(path string, ttl time.Duration) *Store {
	return &Store{
		internal: gache.New[map[string]*entry](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
		ttl: ttl,
		now: time.Now,
	}
}

// FromConfig creates the store at where.Results() with cache.ttl.
func FromConfig() *Store {
	return New(where.Results(), viper.GetDuration(key.CacheTTL))
}

func (s *Store) load() (map[string]*entry, error) {
	data, expired, err := s.internal.Get()
	if err != nil {
		return nil, err
	}
	if expired || data == nil {
		return make(map[string]*entry), nil
	}
	return data, nil
}

// Get returns the live entry of ref, if any.
func (s *Store) Get(ref source.MediaReference) mo.Option[[]source.ExtractedStream] {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return mo.None[[]source.ExtractedStream]()
	}

	e, ok := data[ref.CacheKey()]
	if !ok || !s.now().Before(e.Expires) {
		return mo.None[[]source.ExtractedStream]()
	}

	return mo.Some(e.Streams)
}

// Set stores streams for ref and prunes expired entries. Empty lists are not stored.
func (s *Store) Set(ref source.MediaReference, streams []source.ExtractedStream) error {
	if len(streams) == 0 || s.ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	now := s.now()
	for k, e := range data {
		if !now.Before(e.Expires) {
			delete(data, k)
		}
	}

	data[ref.CacheKey()] = &entry{Streams: streams, Expires: now.Add(s.ttl)}
	return s.internal.Set(data)
}

// Clear drops every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.internal.Set(make(map[string]*entry))
}
