// Package state persists completed activities in a bbolt database.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/rotblauer/catpace/conceptual"
	"github.com/rotblauer/catpace/params"
	"github.com/rotblauer/catpace/types/activity"
	"github.com/rotblauer/catpace/types/catrun"
	"go.etcd.io/bbolt"
)

var (
	ErrNotFound = errors.New("activity not found")
	ErrReadOnly = errors.New("store is read-only")
)

// Query selects stored activities. Zero fields match everything.
type Query struct {
	Activity activity.Activity // Unknown matches any
	From, To time.Time         // on Start, inclusive
	ExceptID conceptual.ActivityID
	Limit    int // most recent first when set
}

func (q Query) Matches(r *catrun.CatRun) bool {
	if q.Activity.IsKnown() && r.Activity != q.Activity {
		return false
	}
	if !q.From.IsZero() && r.Start.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && r.Start.After(q.To) {
		return false
	}
	if !q.ExceptID.Empty() && r.ID == q.ExceptID {
		return false
	}
	return true
}

// Store is safe for concurrent use.
// Returned activities are shared with the read cache; treat them as read-only.
type Store struct {
	DB    *bbolt.DB
	rOnly bool

	cacheMu sync.Mutex
	cache   *lru.Cache
}

// Open opens (creating if needed) the activity database in dir.
// A writable open holds the file lock; other openers block until timeout.
func Open(dir string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(filepath.Join(dir, params.ActivitiesDBName), 0600, &bbolt.Options{
		ReadOnly: readOnly,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open activities db: %w", err)
	}
	return &Store{
		DB:    db,
		rOnly: readOnly,
		cache: lru.New(params.ActivityCacheSize),
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) cacheGet(id conceptual.ActivityID) (*catrun.CatRun, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*catrun.CatRun), true
}

func (s *Store) cacheAdd(r *catrun.CatRun) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Add(r.ID, r)
}

func (s *Store) cacheRemove(id conceptual.ActivityID) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Remove(id)
}

// Save writes the activity, replacing any with the same id.
func (s *Store) Save(r *catrun.CatRun) error {
	if s.rOnly {
		return ErrReadOnly
	}
	if err := r.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	err = s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(params.ActivitiesBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(r.ID), b)
	})
	if err != nil {
		return fmt.Errorf("save activity %s: %w", r.ID, err)
	}
	s.cacheAdd(r)
	slog.Debug("Stored activity", "id", r.ID, "size", len(b))
	return nil
}

// Get returns the activity by id, or ErrNotFound.
func (s *Store) Get(id conceptual.ActivityID) (*catrun.CatRun, error) {
	if r, ok := s.cacheGet(id); ok {
		return r, nil
	}
	var r *catrun.CatRun
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.ActivitiesBucket)
		if bucket == nil {
			return nil
		}
		// The value returned by Get is only valid in the scope of the transaction.
		got := bucket.Get([]byte(id))
		if got == nil {
			return nil
		}
		r = &catrun.CatRun{}
		return json.Unmarshal(got, r)
	})
	if err != nil {
		return nil, fmt.Errorf("read activity %s: %w", id, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.cacheAdd(r)
	return r, nil
}

// List returns matching activities ordered oldest first.
// With a Limit, only the most recent matches are kept (still oldest first).
func (s *Store) List(q Query) ([]*catrun.CatRun, error) {
	var out []*catrun.CatRun
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.ActivitiesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			id := conceptual.ActivityID(k)
			r, ok := s.cacheGet(id)
			if !ok {
				r = &catrun.CatRun{}
				if err := json.Unmarshal(v, r); err != nil {
					return fmt.Errorf("decode activity %s: %w", id, err)
				}
				s.cacheAdd(r)
			}
			if q.Matches(r) {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, catrun.ByStart)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

// Delete removes the activity, or returns ErrNotFound.
func (s *Store) Delete(id conceptual.ActivityID) error {
	if s.rOnly {
		return ErrReadOnly
	}
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(params.ActivitiesBucket)
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return err
	}
	s.cacheRemove(id)
	return nil
}
