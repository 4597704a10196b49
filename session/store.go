package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidewave-cli/tidewave/filesystem"
	"github.com/tidewave-cli/tidewave/log"
)

// StoreVersion tags the on-disk schema. Loading a file with a different
// version fails fast instead of silently misinterpreting it.
const StoreVersion = 1

// Store is the persisted named collection of sessions plus an optional
// default. Every mutating operation is followed by a save so the on-disk copy
// stays consistent.
type Store struct {
	path     string
	sessions map[string]*Session
	def      string
}

// storeFile is the on-disk representation.
type storeFile struct {
	Version  int                 `json:"version"`
	Sessions map[string]*Session `json:"sessions"`
	Default  string              `json:"default,omitempty"`
}

// Load reads the persisted store at path, bootstrapping an empty store (and
// persisting it immediately) when the file does not exist. A version mismatch
// or an undecodable file yields ErrCorruptStore with no partial load.
func Load(path string) (*Store, error) {
	store := &Store{path: path, sessions: make(map[string]*Session)}

	exists, err := filesystem.API().Exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat session store: %w", err)
	}
	if !exists {
		if err := store.Save(); err != nil {
			return nil, err
		}
		return store, nil
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if file.Version != StoreVersion {
		return nil, fmt.Errorf("%w: found version %d, expected %d", ErrCorruptStore, file.Version, StoreVersion)
	}

	if file.Sessions != nil {
		store.sessions = file.Sessions
	}
	if _, ok := store.sessions[file.Default]; ok {
		store.def = file.Default
	}
	return store, nil
}

// Save serializes the whole store to its backing file.
func (st *Store) Save() error {
	file := storeFile{
		Version:  StoreVersion,
		Sessions: st.sessions,
		Default:  st.def,
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}
	if err := filesystem.API().WriteFile(st.path, data, 0600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return nil
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	return len(st.sessions)
}

// Names returns the stored session names in stable sorted order.
func (st *Store) Names() []string {
	names := make([]string, 0, len(st.sessions))
	for name := range st.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the name of the default session, if one is set.
func (st *Store) Default() string {
	return st.def
}

// Add stores a session under name. The first session added automatically
// becomes the default.
func (st *Store) Add(name string, s *Session) error {
	if _, exists := st.sessions[name]; exists {
		return &DuplicateNameError{Name: name}
	}

	st.sessions[name] = s
	if len(st.sessions) == 1 {
		st.def = name
	}
	return st.Save()
}

// Remove deletes a session by name. Removing the default clears the default.
func (st *Store) Remove(name string) error {
	if _, exists := st.sessions[name]; !exists {
		return &NotFoundError{Name: name}
	}

	delete(st.sessions, name)
	if st.def == name {
		st.def = ""
	}
	return st.Save()
}

// Peek returns a session without any validity checking.
func (st *Store) Peek(name string) (*Session, error) {
	s, exists := st.sessions[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}
	return s, nil
}

// Get returns a guaranteed-usable session, or a clear actionable error. An
// empty name selects the default. An invalid session gets exactly one refresh
// attempt; if it is still invalid, InvalidSessionError names the session.
func (st *Store) Get(ctx context.Context, name string) (*Session, error) {
	if name == "" {
		name = st.def
	}

	s, exists := st.sessions[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}

	if s.Valid(ctx) {
		return s, nil
	}

	log.Infof("session %q is invalid, attempting refresh", name)
	if s.Refresh(ctx) && s.Valid(ctx) {
		if err := st.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, &InvalidSessionError{Name: name}
}

// SetDefault marks a session as the default after confirming it can be made valid.
func (st *Store) SetDefault(ctx context.Context, name string) error {
	if _, err := st.Get(ctx, name); err != nil {
		return err
	}

	st.def = name
	return st.Save()
}

// Iterator returns a lazy, restartable enumeration over the stored sessions in
// name order. Used by the account selector to brute-force candidates.
func (st *Store) Iterator() *Iterator {
	return &Iterator{store: st, names: st.Names()}
}

// Iterator walks the store's sessions in a stable order.
type Iterator struct {
	store *Store
	names []string
	pos   int
}

// Next returns the next session and its name. ok is false once the iterator
// is exhausted.
func (it *Iterator) Next() (s *Session, name string, ok bool) {
	for it.pos < len(it.names) {
		name = it.names[it.pos]
		it.pos++
		if s, err := it.store.Peek(name); err == nil {
			return s, name, true
		}
	}
	return nil, "", false
}

// Reset rewinds the iterator to the beginning of a fresh snapshot.
func (it *Iterator) Reset() {
	it.names = it.store.Names()
	it.pos = 0
}
