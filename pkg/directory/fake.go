package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Fake is an in-memory Service for tests.
type Fake struct {
	mu       sync.Mutex
	users    map[string]string          // username -> password
	groups   map[string]map[string]bool // group -> member set
	Deleted  []string
	FailWith error
}

func NewFake() *Fake {
	return &Fake{
		users:  map[string]string{},
		groups: map[string]map[string]bool{},
	}
}

func (f *Fake) CreateUser(_ context.Context, username, userPassword string, groups []string) (Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return Account{}, f.FailWith
	}
	if _, ok := f.users[username]; ok {
		return Account{}, fmt.Errorf("%w: %s", ErrUserExists, username)
	}
	if userPassword == "" {
		var err error
		userPassword, err = generatePassword()
		if err != nil {
			return Account{}, err
		}
	}
	f.users[username] = userPassword
	for _, group := range append(groups, username) {
		f.joinLocked(username, group)
	}
	return Account{Username: username, Password: userPassword}, nil
}

func (f *Fake) DeleteUser(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return f.FailWith
	}
	if _, ok := f.users[username]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	delete(f.users, username)
	delete(f.groups, username)
	for _, members := range f.groups {
		delete(members, username)
	}
	f.Deleted = append(f.Deleted, username)
	return nil
}

func (f *Fake) SetPassword(_ context.Context, username, userPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	f.users[username] = userPassword
	return nil
}

func (f *Fake) EnsureGroup(_ context.Context, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[group]; !ok {
		f.groups[group] = map[string]bool{}
	}
	return nil
}

func (f *Fake) AddUserToGroup(_ context.Context, username, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinLocked(username, group)
	return nil
}

func (f *Fake) RemoveUserFromGroup(_ context.Context, username, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if members, ok := f.groups[group]; ok {
		delete(members, username)
	}
	return nil
}

func (f *Fake) UserExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[username]
	return ok, nil
}

// Password returns the password recorded for the user.
func (f *Fake) Password(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username]
}

// Members returns the group's member usernames, sorted.
func (f *Fake) Members(group string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for member := range f.groups[group] {
		out = append(out, member)
	}
	sort.Strings(out)
	return out
}

func (f *Fake) joinLocked(username, group string) {
	if _, ok := f.groups[group]; !ok {
		f.groups[group] = map[string]bool{}
	}
	f.groups[group][username] = true
}
