package memory

import (
	"context"
	"sync"

	domainuser "tradehub/internal/domain/user"
)

// UserDirectory stores users in memory. Not suitable for production.
type UserDirectory struct {
	mu      sync.RWMutex
	byID    map[domainuser.ID]*domainuser.User
	byEmail map[string]domainuser.ID
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		byID:    make(map[domainuser.ID]*domainuser.User),
		byEmail: make(map[string]domainuser.ID),
	}
}

func (d *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if user, ok := d.byID[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (d *UserDirectory) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[domainuser.NormalizeEmail(email)]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	if user, ok := d.byID[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (d *UserDirectory) Add(user *domainuser.User) error {
	if user == nil {
		return domainuser.ErrIDRequired
	}
	emailKey := domainuser.NormalizeEmail(user.Email)
	if emailKey == "" {
		return domainuser.ErrEmailRequired
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byEmail[emailKey] = user.ID
	d.byID[user.ID] = cloneUser(user)
	return nil
}

func cloneUser(u *domainuser.User) *domainuser.User {
	if u == nil {
		return nil
	}
	copyUser := *u
	return &copyUser
}

var _ domainuser.Directory = (*UserDirectory)(nil)
