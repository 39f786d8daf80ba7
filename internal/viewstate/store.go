package viewstate

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"trainingcal/internal/model"
)

// Store is the addressable place the navigation state lives, such as a URL
// query string. Replace overwrites the current entry; it never adds a
// history entry.
type Store interface {
	Load() (model.NavigationState, error)
	Replace(model.NavigationState) error
}

const (
	viewParam = "view"
	dateParam = "date"
)

// QueryStore keeps the state in URL query values (?view=week&date=2025-01-14).
// Other parameters in the query are left alone.
type QueryStore struct {
	mu     sync.Mutex
	values url.Values
}

// NewQueryStore wraps a copy of values.
func NewQueryStore(values url.Values) *QueryStore {
	cp := url.Values{}
	for k, v := range values {
		cp[k] = append([]string(nil), v...)
	}
	return &QueryStore{values: cp}
}

func (s *QueryStore) Load() (model.NavigationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NavigationState{
		View: model.ViewMode(s.values.Get(viewParam)),
		Date: s.values.Get(dateParam),
	}, nil
}

func (s *QueryStore) Replace(st model.NavigationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.Set(viewParam, string(st.View))
	s.values.Set(dateParam, st.Date)
	return nil
}

// Encode renders the current query string.
func (s *QueryStore) Encode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Encode()
}

const diskKey = "navigation"

// DiskStore persists the state between CLI runs and for the scheduler.
type DiskStore struct {
	d *diskv.Diskv
}

// NewDiskStore stores state files under dir.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:          dir,
		AdvancedTransform: func(key string) *diskv.PathKey { return &diskv.PathKey{Path: []string{}, FileName: key + ".json"} },
		InverseTransform:  func(pk *diskv.PathKey) string { return pk.FileName[:len(pk.FileName)-len(".json")] },
		CacheSizeMax:      64 * 1024,
		FilePerm:          0o600,
		PathPerm:          0o700,
	})}
}

// Load returns the zero state when nothing was saved yet.
func (s *DiskStore) Load() (model.NavigationState, error) {
	var st model.NavigationState
	data, err := s.d.Read(diskKey)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return model.NavigationState{}, err
	}
	return st, nil
}

func (s *DiskStore) Replace(st model.NavigationState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.d.Write(diskKey, data)
}
