// Package catalog holds the in-memory list of known videos.
//
// A Store is owned by the application and shared by reference with the
// reconciler, the HTTP API and the bot. Readers take the read lock; a
// reconciliation pass runs entirely inside Update so readers see either the
// catalog before the pass or after it, never in between.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/AleksKim19/testvideospkbot/internal/models"
)

var ErrNotFound = errors.New("video not found")

type Store struct {
	mu     sync.RWMutex
	videos []models.Video
	nextID int
}

func NewStore() *Store {
	return &Store{nextID: 1}
}

// List returns the videos in stored order. A non-empty city keeps only the
// videos whose city contains it, ignoring case.
func (s *Store) List(city string) []models.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if city == "" {
		out := make([]models.Video, len(s.videos))
		copy(out, s.videos)
		return out
	}

	needle := strings.ToLower(city)
	out := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		if strings.Contains(strings.ToLower(v.City), needle) {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Get(id int) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.videos {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Video{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// AllocateID returns the next unused id. Ids are never handed out twice.
func (s *Store) AllocateID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Update runs fn with exclusive access to the catalog. Changes staged on
// the Tx are committed only if fn returns nil. Ids allocated inside a failed
// Update stay retired.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		store:  s,
		videos: append([]models.Video(nil), s.videos...),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.videos = tx.videos
	return nil
}

// Tx is a staged view of the catalog handed to Update callbacks. It must
// not be retained after the callback returns.
type Tx struct {
	store  *Store
	videos []models.Video
}

func (tx *Tx) Videos() []models.Video {
	return append([]models.Video(nil), tx.videos...)
}

func (tx *Tx) Len() int {
	return len(tx.videos)
}

// Has reports whether a video with the given derived URL is staged.
func (tx *Tx) Has(url string) bool {
	for _, v := range tx.videos {
		if v.URL == url {
			return true
		}
	}
	return false
}

// Retain keeps the videos for which keep returns true and returns the rest.
func (tx *Tx) Retain(keep func(models.Video) bool) []models.Video {
	kept := tx.videos[:0:0]
	var removed []models.Video
	for _, v := range tx.videos {
		if keep(v) {
			kept = append(kept, v)
		} else {
			removed = append(removed, v)
		}
	}
	tx.videos = kept
	return removed
}

func (tx *Tx) Append(v models.Video) {
	tx.videos = append(tx.videos, v)
}

// AllocateID is Store.AllocateID for callers already holding the lock.
func (tx *Tx) AllocateID() int {
	id := tx.store.nextID
	tx.store.nextID++
	return id
}
