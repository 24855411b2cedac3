package refreshrepofake

import (
	"sort"
	"sync"

	"github.com/agrinos/plantclassifier/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken // keyed by hash
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Upsert(refreshToken *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt := *refreshToken
	tr.tokens[rt.Hash] = &rt
	return nil
}

func (tr *FakeRefreshTokenRepo) Take(hash string) (*refresh.StoredRefreshToken, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[hash]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	delete(tr.tokens, hash)
	return rt, nil
}

func (tr *FakeRefreshTokenRepo) DeleteByUserID(userID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	for hash, rt := range tr.tokens {
		if rt.UserID == userID {
			delete(tr.tokens, hash)
		}
	}
	return nil
}

func (tr *FakeRefreshTokenRepo) List(offset, limit int) ([]*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tokens := make([]*refresh.StoredRefreshToken, 0, len(tr.tokens))
	for _, v := range tr.tokens {
		rt := *v
		tokens = append(tokens, &rt)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Iat.Before(tokens[j].Iat)
	})

	if offset >= len(tokens) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(tokens) {
		end = len(tokens)
	}
	return tokens[offset:end], nil
}
