// Package auth keeps the toy account list and login state of one browser.
//
// Passwords are stored and compared as plain text unless password hashing is
// switched on. Neither mode is fit for real credentials.
package auth

import (
	"encoding/json"
	"sync"

	"github.com/labstack/gommon/log"

	"github.com/recipeapp/recipe-app/model"
	"github.com/recipeapp/recipe-app/store"
	"github.com/recipeapp/recipe-app/util"
)

// Durable storage keys
const (
	KeyUsers       = "users"
	KeyLoggedIn    = "loggedIn"
	KeyCurrentUser = "currentUser"
)

const loggedInValue = "true"

// Option configures a Store
type Option func(*Store)

// WithPasswordHashing stores bcrypt hashes instead of plain text passwords
func WithPasswordHashing(cost int) Option {
	return func(s *Store) {
		s.hashPasswords = true
		s.bcryptCost = cost
	}
}

// WithObserver subscribes fn to session changes from the start
func WithObserver(fn func(model.SessionState)) Option {
	return func(s *Store) {
		s.subscribe(fn)
	}
}

// Store mirrors the durable user list and session flags in memory.
// Every mutation is written to storage before the mirror changes.
type Store struct {
	mu      sync.Mutex
	storage store.Storage

	users       map[string]string
	loggedIn    bool
	currentUser string

	hashPasswords bool
	bcryptCost    int

	observerMu sync.Mutex
	observers  map[int]func(model.SessionState)
	nextID     int
}

// New builds a Store from what storage currently holds
func New(storage store.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage:   storage,
		users:     make(map[string]string),
		observers: make(map[int]func(model.SessionState)),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := storage.GetItem(KeyUsers)
	if err != nil {
		return nil, persistenceError("read", KeyUsers, err)
	}
	if ok {
		users := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			log.Warnf("Stored user list is malformed, starting with an empty one: %v", err)
		} else if users != nil {
			s.users = users
		}
	}

	loggedIn, _, err := storage.GetItem(KeyLoggedIn)
	if err != nil {
		return nil, persistenceError("read", KeyLoggedIn, err)
	}
	currentUser, _, err := storage.GetItem(KeyCurrentUser)
	if err != nil {
		return nil, persistenceError("read", KeyCurrentUser, err)
	}

	// a username without the logged in flag is left over from an interrupted write
	if loggedIn == loggedInValue {
		s.loggedIn = true
		s.currentUser = currentUser
	}

	return s, nil
}

// Register adds a user. It returns false when the username is already taken.
func (s *Store) Register(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return false, nil
	}

	stored := password
	if s.hashPasswords {
		hash, err := util.HashPassword(password, s.bcryptCost)
		if err != nil {
			return false, err
		}
		stored = hash
	}

	updated := make(map[string]string, len(s.users)+1)
	for k, v := range s.users {
		updated[k] = v
	}
	updated[username] = stored

	data, err := json.Marshal(updated)
	if err != nil {
		return false, err
	}
	if err := s.storage.SetItem(KeyUsers, string(data)); err != nil {
		return false, persistenceError("write", KeyUsers, err)
	}

	s.users = updated
	return true, nil
}

// Login starts a session when the password matches the registered one exactly.
// A failed attempt leaves the current session untouched.
func (s *Store) Login(username, password string) (bool, error) {
	s.mu.Lock()

	stored, exists := s.users[username]
	if !exists {
		s.mu.Unlock()
		return false, nil
	}

	match := stored == password
	if s.hashPasswords {
		var err error
		match, err = util.VerifyHash(stored, password)
		if err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	if !match {
		s.mu.Unlock()
		return false, nil
	}

	// currentUser goes first so a stored loggedIn flag always has a user
	if err := s.storage.SetItem(KeyCurrentUser, username); err != nil {
		s.mu.Unlock()
		return false, persistenceError("write", KeyCurrentUser, err)
	}
	if err := s.storage.SetItem(KeyLoggedIn, loggedInValue); err != nil {
		s.restoreCurrentUserLocked()
		s.mu.Unlock()
		return false, persistenceError("write", KeyLoggedIn, err)
	}

	s.loggedIn = true
	s.currentUser = username
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
	return true, nil
}

// restoreCurrentUserLocked puts the stored currentUser back to what the mirror
// holds after a login was only half written.
func (s *Store) restoreCurrentUserLocked() {
	var err error
	if s.loggedIn {
		err = s.storage.SetItem(KeyCurrentUser, s.currentUser)
	} else {
		err = s.storage.RemoveItem(KeyCurrentUser)
	}
	if err != nil {
		log.Errorf("Cannot roll back %s after a failed login: %v", KeyCurrentUser, err)
	}
}

// Logout ends the session. Calling it while logged out is a no-op apart from
// clearing storage again.
func (s *Store) Logout() error {
	s.mu.Lock()

	if err := s.storage.RemoveItem(KeyLoggedIn); err != nil {
		s.mu.Unlock()
		return persistenceError("remove", KeyLoggedIn, err)
	}
	if err := s.storage.RemoveItem(KeyCurrentUser); err != nil {
		s.mu.Unlock()
		return persistenceError("remove", KeyCurrentUser, err)
	}

	changed := s.loggedIn || s.currentUser != ""
	s.loggedIn = false
	s.currentUser = ""
	state := s.stateLocked()
	s.mu.Unlock()

	if changed {
		s.notify(state)
	}
	return nil
}

func (s *Store) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Store) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentUser
}

// State returns a snapshot of the session
func (s *Store) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// HasUser reports whether username is registered
func (s *Store) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok
}

// Subscribe calls fn with the new state after every session change.
// Observers run outside the store lock and may call back into the store.
func (s *Store) Subscribe(fn func(model.SessionState)) (cancel func()) {
	id := s.subscribe(fn)
	return func() {
		s.observerMu.Lock()
		delete(s.observers, id)
		s.observerMu.Unlock()
	}
}

func (s *Store) subscribe(fn func(model.SessionState)) int {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return id
}

func (s *Store) notify(state model.SessionState) {
	s.observerMu.Lock()
	fns := make([]func(model.SessionState), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.observerMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store) stateLocked() model.SessionState {
	return model.SessionState{LoggedIn: s.loggedIn, CurrentUser: s.currentUser}
}
