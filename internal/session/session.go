// Package session owns the per-upload working directories under the upload
// root. A session lives from the upload until its confirm finishes (either
// way) or until the sweeper finds it abandoned.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"informeclaro/internal/storage"
)

var (
	// ErrInvalidID is returned for identifiers that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
	// ErrNotFound is returned when the session directory does not exist.
	ErrNotFound = errors.New("session not found")
)

// Session is a handle on one session directory.
type Session struct {
	ID  string
	Dir string
}

// Path resolves a bare file name inside the session directory.
func (s *Session) Path(name string) (string, error) {
	if err := storage.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, name), nil
}

// Manager creates, resolves, guards and removes session directories.
type Manager struct {
	root string
	log  *logrus.Logger
	now  func() time.Time

	mu   sync.Mutex
	held map[string]struct{}
}

// NewManager returns a Manager rooted at the upload directory.
func NewManager(root string, log *logrus.Logger) *Manager {
	return &Manager{
		root: root,
		log:  log,
		now:  time.Now,
		held: make(map[string]struct{}),
	}
}

// Create allocates a fresh id and its directory.
func (m *Manager) Create() (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	m.log.WithField("session_id", id).Debug("session created")
	return &Session{ID: id, Dir: dir}, nil
}

// Lookup resolves id to a handle without checking that the directory exists.
// Only UUIDs are accepted, so the result never escapes the upload root.
func (m *Manager) Lookup(id string) (*Session, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return nil, ErrInvalidID
	}
	return &Session{ID: id, Dir: filepath.Join(m.root, id)}, nil
}

// Open resolves id and checks that its directory exists.
func (m *Manager) Open(id string) (*Session, error) {
	s, err := m.Lookup(id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(s.Dir)
	if err != nil || !info.IsDir() {
		return nil, ErrNotFound
	}
	return s, nil
}

// Acquire marks id as held. It reports false when another caller holds it;
// otherwise the returned func releases the hold.
func (m *Manager) Acquire(id string) (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.held[id]; busy {
		return nil, false
	}
	m.held[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, id)
			m.mu.Unlock()
		})
	}, true
}

// Remove deletes the session directory; a missing directory is not an error.
func (m *Manager) Remove(id string) error {
	s, err := m.Lookup(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		m.log.WithError(err).WithField("session_id", id).Error("session cleanup failed")
		return fmt.Errorf("remove session dir: %w", err)
	}
	m.log.WithField("session_id", id).Debug("session removed")
	return nil
}

// Sweep removes session directories older than ttl that nobody holds, and
// calls onExpired with each removed id. It returns the number removed.
func (m *Manager) Sweep(ttl time.Duration, onExpired func(id string)) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("read upload root: %w", err)
	}
	cutoff := m.now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		if _, err := m.Lookup(id); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		release, ok := m.Acquire(id)
		if !ok {
			continue
		}
		err = m.Remove(id)
		release()
		if err != nil {
			continue
		}
		removed++
		if onExpired != nil {
			onExpired(id)
		}
	}
	return removed, nil
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval, ttl time.Duration, onExpired func(id string)) {
	if interval <= 0 || ttl <= 0 {
		m.log.Info("session sweeper disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := m.Sweep(ttl, onExpired)
				if err != nil {
					m.log.WithError(err).Warn("session sweep failed")
					continue
				}
				if n > 0 {
					m.log.WithField("removed", n).Info("stale sessions swept")
				}
			}
		}
	}()
}
