package fakeuserrepo

import (
	"sort"
	"sync"

	"github.com/agrinos/plantclassifier/users"
	"github.com/google/uuid"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := users.NormalizeEmail(user.Email)
	if user.ID == "" {
		if existingID, ok := ur.emailIds[email]; ok {
			user.ID = existingID
		} else {
			user.ID = uuid.New().String()
		}
	}
	stored := *user
	stored.Email = email
	ur.users[user.ID] = &stored
	ur.emailIds[email] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.User, 0, len(ur.users))
	for _, u := range ur.users {
		c := *u
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].DateJoined.Before(list[j].DateJoined)
	})

	if offset >= len(list) {
		return nil, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}
