package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		pw, err := generatePassword()
		require.NoError(t, err)
		assert.Len(t, pw, generatedPasswordLength)
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestFakeCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("generates a password when none is given", func(t *testing.T) {
		fake := NewFake()

		account, err := fake.CreateUser(ctx, "alice", "", nil)

		require.NoError(t, err)
		assert.Equal(t, "alice", account.Username)
		assert.Len(t, account.Password, generatedPasswordLength)
		assert.Equal(t, account.Password, fake.Password("alice"))
	})

	t.Run("joins the personal group and the requested groups", func(t *testing.T) {
		fake := NewFake()

		_, err := fake.CreateUser(ctx, "alice", "s3cret!!", []string{"analysts"})

		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, fake.Members("alice"))
		assert.Equal(t, []string{"alice"}, fake.Members("analysts"))
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		fake := NewFake()
		_, err := fake.CreateUser(ctx, "alice", "", nil)
		require.NoError(t, err)

		_, err = fake.CreateUser(ctx, "alice", "", nil)

		assert.ErrorIs(t, err, ErrUserExists)
	})
}

func TestFakeDeleteUser(t *testing.T) {
	ctx := context.Background()
	fake := NewFake()
	_, err := fake.CreateUser(ctx, "alice", "", []string{"analysts"})
	require.NoError(t, err)

	require.NoError(t, fake.DeleteUser(ctx, "alice"))

	exists, err := fake.UserExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, fake.Members("analysts"))
	assert.ErrorIs(t, fake.DeleteUser(ctx, "alice"), ErrUserNotFound)
}
