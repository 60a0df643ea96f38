package prefs

import (
	"sync"

	"github.com/dvdlevanon/my-collection-sub000/internal/player"
)

var _ player.Persister = (*Store)(nil)

// Store keeps the loaded preferences in memory and writes every update back
// to disk.
type Store struct {
	path string

	mu    sync.Mutex
	prefs Prefs
}

// Open loads preferences from path into a Store.
func Open(path string) *Store {
	p, _ := Load(path)
	return &Store{path: path, prefs: p}
}

// Get returns the current preferences.
func (s *Store) Get() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Update applies fn and saves the result. The in-memory copy is updated even
// when saving fails.
func (s *Store) Update(fn func(Prefs) Prefs) error {
	s.mu.Lock()
	s.prefs = fn(s.prefs)
	p := s.prefs
	s.mu.Unlock()
	return Save(s.path, p)
}

// SavePlayer persists the volume and auto-play-next setting.
func (s *Store) SavePlayer(volume float64, autoPlayNext bool) error {
	return s.Update(func(p Prefs) Prefs {
		p.Player = Player{Volume: volume, AutoPlayNext: autoPlayNext}
		return p
	})
}
