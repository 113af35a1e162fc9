package directory

import (
	"context"
	"errors"

	"github.com/sethvargo/go-password/password"
)

// ErrUserExists is returned when provisioning an account whose username
// is already taken in the directory.
var ErrUserExists = errors.New("directory user already exists")

// ErrUserNotFound is returned when an operation targets an absent user.
var ErrUserNotFound = errors.New("directory user not found")

// Account is a provisioned directory account. Password is the cleartext
// the account was created with; it is only populated on creation so the
// caller can hand it to the account owner.
type Account struct {
	Username string
	Password string
}

// Service manages posix accounts and groups in the directory. Every user
// owns a personal group of the same name; provisioning creates both and
// deprovisioning removes both.
type Service interface {
	// CreateUser provisions an account. An empty password means one is
	// generated; the cleartext used is returned either way. Groups are
	// joined in addition to the user's personal group.
	CreateUser(ctx context.Context, username, userPassword string, groups []string) (Account, error)

	// DeleteUser removes the account and its personal group.
	DeleteUser(ctx context.Context, username string) error

	// SetPassword replaces the account's password.
	SetPassword(ctx context.Context, username, userPassword string) error

	// EnsureGroup creates the group when it does not exist.
	EnsureGroup(ctx context.Context, group string) error

	AddUserToGroup(ctx context.Context, username, group string) error
	RemoveUserFromGroup(ctx context.Context, username, group string) error

	// UserExists reports whether the username is taken.
	UserExists(ctx context.Context, username string) (bool, error)
}

const generatedPasswordLength = 8

// generatePassword builds the initial password for accounts provisioned
// without one.
func generatePassword() (string, error) {
	return password.Generate(generatedPasswordLength, 2, 0, false, true)
}
