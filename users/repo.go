package users

import "errors"

var ErrUserNotFound = errors.New("user not found")

type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
	List(offset, limit int) ([]*User, error)
}
