package storefake

import (
	"context"
	"sync"

	"github.com/agrinos/plantclassifier/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore keeps the encoded slot in memory. It backs tests and the
// "memory" session backend.
type FakeStore struct {
	data   []byte
	writes int
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Read(_ context.Context) (*session.Session, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.data == nil {
		return nil, false
	}
	s, err := session.Decode(fs.data)
	if err != nil {
		return nil, false
	}
	return s, true
}

func (fs *FakeStore) Write(_ context.Context, s *session.Session) error {
	data, err := session.Encode(s)
	if err != nil {
		return err
	}

	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data = data
	fs.writes++
	return nil
}

func (fs *FakeStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data = nil
	return nil
}

// SetRaw replaces the slot with arbitrary bytes, bypassing validation.
func (fs *FakeStore) SetRaw(data []byte) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.data = data
}

// Raw returns a copy of the slot bytes, nil when empty.
func (fs *FakeStore) Raw() []byte {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	if fs.data == nil {
		return nil
	}
	return append([]byte(nil), fs.data...)
}

// Writes counts successful Write calls.
func (fs *FakeStore) Writes() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.writes
}
