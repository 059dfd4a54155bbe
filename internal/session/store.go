package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	filePerms      = 0644
	lockRetryDelay = 20 * time.Millisecond
)

var (
	// ErrSessionNotFound is returned when no session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEntryNotFound is returned when a session has no entry with the
	// requested ID.
	ErrEntryNotFound = errors.New("answer not found")
)

// fileData is the on-disk layout. Templates and any other top-level
// members are carried through untouched.
type fileData struct {
	Sessions  []Session       `json:"sessions"`
	Templates json.RawMessage `json:"templates"`

	extra extraFields
}

func (d *fileData) UnmarshalJSON(data []byte) error {
	type plain fileData
	var p plain
	extra, err := decodeWithExtra(data, &p, "sessions", "templates")
	if err != nil {
		return err
	}
	*d = fileData(p)
	d.extra = extra
	return nil
}

func (d fileData) MarshalJSON() ([]byte, error) {
	type plain fileData
	return encodeWithExtra(plain(d), d.extra)
}

// Store is a session store over one JSON file. Every operation re-reads the
// file, so edits made by other processes holding the same lock are seen.
type Store struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// Open returns a store for path, creating the file with no sessions when it
// does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}

	err := s.update(context.Background(), func(*fileData) error { return nil })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the data file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new untitled session at the front of the list.
func (s *Store) Create(ctx context.Context) (Session, error) {
	sess := Session{ID: NewID(), Title: DefaultTitle, History: []Entry{}}
	err := s.update(ctx, func(d *fileData) error {
		d.Sessions = append([]Session{sess}, d.Sessions...)
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// List returns the ID and title of every session, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.view(ctx, func(d *fileData) error {
		out = make([]Summary, len(d.Sessions))
		for i, sess := range d.Sessions {
			out[i] = Summary{ID: sess.ID, Title: sess.Title}
		}
		return nil
	})
	return out, err
}

// All returns every session with its history.
func (s *Store) All(ctx context.Context) ([]Session, error) {
	var out []Session
	err := s.view(ctx, func(d *fileData) error {
		out = d.Sessions
		return nil
	})
	return out, err
}

// Get returns one session.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	var out Session
	err := s.view(ctx, func(d *fileData) error {
		i := indexOf(d.Sessions, id)
		if i < 0 {
			return ErrSessionNotFound
		}
		out = d.Sessions[i]
		return nil
	})
	return out, err
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(d *fileData) error {
		i := indexOf(d.Sessions, id)
		if i < 0 {
			return ErrSessionNotFound
		}
		d.Sessions = append(d.Sessions[:i], d.Sessions[i+1:]...)
		return nil
	})
}

// Exchange is one question and its answer, appended together.
type Exchange struct {
	User      Entry
	Assistant Entry
	// Title replaces the session title when the session is still untitled.
	// Empty leaves the title alone.
	Title string
}

// AppendExchange appends both entries of ex to the session and returns the
// updated session.
func (s *Store) AppendExchange(ctx context.Context, id string, ex Exchange) (Session, error) {
	var out Session
	err := s.update(ctx, func(d *fileData) error {
		i := indexOf(d.Sessions, id)
		if i < 0 {
			return ErrSessionNotFound
		}
		sess := &d.Sessions[i]
		sess.History = append(sess.History, ex.User, ex.Assistant)
		if ex.Title != "" && sess.Untitled() {
			sess.Title = ex.Title
		}
		out = *sess
		return nil
	})
	return out, err
}

// ToggleFeedback applies a vote to an entry and returns its new feedback.
func (s *Store) ToggleFeedback(ctx context.Context, sessionID, entryID string, v Vote) (Feedback, error) {
	if !v.Valid() {
		return Feedback{}, fmt.Errorf("unknown vote %q", v)
	}

	var out Feedback
	err := s.update(ctx, func(d *fileData) error {
		i := indexOf(d.Sessions, sessionID)
		if i < 0 {
			return ErrSessionNotFound
		}
		entry, ok := d.Sessions[i].Entry(entryID)
		if !ok {
			return ErrEntryNotFound
		}
		var current Feedback
		if entry.Feedback != nil {
			current = *entry.Feedback
		}
		out = current.Toggle(v)
		entry.Feedback = &out
		return nil
	})
	return out, err
}

func indexOf(sessions []Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// view runs fn on a fresh read of the file under a shared lock.
func (s *Store) view(ctx context.Context, fn func(*fileData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	d, _, err := s.read()
	if err != nil {
		return err
	}
	return fn(d)
}

// update runs fn on a fresh read of the file under an exclusive lock and
// writes the result back when fn succeeds.
func (s *Store) update(ctx context.Context, fn func(*fileData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	d, created, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		if created {
			// Persist the fresh file even when the operation itself fails.
			_ = s.write(d)
		}
		return err
	}
	return s.write(d)
}

// read loads the file. A missing or empty file yields empty data and
// created=true.
func (s *Store) read() (*fileData, bool, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("failed to read session file: %w", err)
	}

	d := &fileData{}
	created := len(bytes.TrimSpace(raw)) == 0
	if !created {
		if err := json.Unmarshal(raw, d); err != nil {
			return nil, false, fmt.Errorf("failed to parse session file: %w", err)
		}
	}
	if d.Sessions == nil {
		d.Sessions = []Session{}
	}
	for i := range d.Sessions {
		if d.Sessions[i].History == nil {
			d.Sessions[i].History = []Entry{}
		}
	}
	if len(bytes.TrimSpace(d.Templates)) == 0 || string(bytes.TrimSpace(d.Templates)) == "null" {
		d.Templates = json.RawMessage(`{}`)
	}
	return d, created, nil
}

// write replaces the file through a temp file and rename.
func (s *Store) write(d *fileData) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := tmp.Chmod(filePerms); err != nil {
		cleanup()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save session file: %w", err)
	}
	return nil
}
