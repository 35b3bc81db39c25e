package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	UsersByID map[int64]*User
	mutex     sync.Mutex
	nextID    int64
}

func newRepoMock() *repoMock {
	return &repoMock{
		UsersByID: make(map[int64]*User),
		nextID:    1,
	}
}

func (r *repoMock) Add(_ context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.UsersByID {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.UsersByID[user.ID] = user
	return nil
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	normalized := NormalizeEmail(email)
	for _, user := range r.UsersByID {
		if user.Email == normalized {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) GetByID(_ context.Context, id int64) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user, ok := r.UsersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *repoMock) Exists(_ context.Context, id int64) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, ok := r.UsersByID[id]
	return ok, nil
}
