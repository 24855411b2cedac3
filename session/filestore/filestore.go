// Package filestore persists the session slot as a JSON file, one directory per
// API origin. Writes go through a temp file and a rename so a reader sees the old
// record or the new one, never a mix.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/agrinos/plantclassifier/session"
	"github.com/rs/zerolog"
)

var _ session.Store = (*Store)(nil)

type Store struct {
	path string
	log  zerolog.Logger
	lock sync.Mutex
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a store rooted at dir for the origin of baseURL.
func New(dir, baseURL string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: directory is required")
	}
	s := &Store{
		path: filepath.Join(dir, session.OriginKey(baseURL), session.StorageKey+".json"),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultDir is the per-user configuration directory used when none is configured.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "plantclassifier")
	}
	return filepath.Join(os.TempDir(), "plantclassifier")
}

// Path is the location of the slot file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Read(_ context.Context) (*session.Session, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("session file unreadable, treating as signed out")
		}
		return nil, false
	}
	sess, err := session.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session file corrupt, treating as signed out")
		return nil, false
	}
	return sess, true
}

func (s *Store) Write(_ context.Context, sess *session.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, session.StorageKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
