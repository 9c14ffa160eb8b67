package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIssuesUsableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.auth.Register(ctx, RegisterInput{Email: " Player@Example.com ", Password: "secret123", Username: "player_1"})
	require.NoError(t, err)
	assert.Equal(t, "player@example.com", sess.User.Email)
	assert.NotEqual(t, "secret123", sess.User.PasswordHash)

	u, err := f.auth.Authenticate(ctx, sess.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)

	login, err := f.auth.Login(ctx, "player@example.com", "secret123")
	require.NoError(t, err)
	u, err = f.auth.Authenticate(ctx, login.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)
}

func TestRegisterDuplicatesConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "alpha")

	_, err := f.auth.Register(ctx, RegisterInput{Email: "ALPHA@example.com", Password: "secret123", Username: "other"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.auth.Register(ctx, RegisterInput{Email: "new@example.com", Password: "secret123", Username: "alpha"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]RegisterInput{
		"email":    {Email: "nope", Password: "secret123"},
		"password": {Email: "a@b.io", Password: "123"},
		"username": {Email: "a@b.io", Password: "secret123", Username: "no spaces"},
		"uid":      {Email: "a@b.io", Password: "secret123", FreeFireUID: "12ab"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterDefaultsUsernameFromEmail(t *testing.T) {
	f := newFixture(t)
	sess, err := f.auth.Register(context.Background(), RegisterInput{Email: "john.doe@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "john_doe", sess.User.Username)

	sess, err = f.auth.Register(context.Background(), RegisterInput{Email: "jo@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.User.Username, "jo_"))
	assert.True(t, usernamePattern.MatchString(sess.User.Username))
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alpha")

	_, errUnknown := f.auth.Login(context.Background(), "ghost@example.com", "secret123")
	_, errWrong := f.auth.Login(context.Background(), "alpha@example.com", "wrong-pass")

	assert.ErrorIs(t, errUnknown, ErrUnauthorized)
	assert.ErrorIs(t, errWrong, ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestAuthenticateRejectsTamperedSignature(t *testing.T) {
	f := newFixture(t)
	sess, err := f.auth.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret123", Username: "alpha"})
	require.NoError(t, err)

	parts := strings.Split(sess.Token.Token, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	_, err = f.auth.Authenticate(context.Background(), strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.auth.Authenticate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	f := newFixture(t)
	sess, err := f.auth.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret123", Username: "alpha"})
	require.NoError(t, err)
	require.NoError(t, f.admin.DeleteUser(context.Background(), sess.User.ID))

	_, err = f.auth.Authenticate(context.Background(), sess.Token.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@tournament.com", "admin123"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@tournament.com", "admin123"))

	sess, err := f.auth.Login(ctx, "admin@tournament.com", "admin123")
	require.NoError(t, err)
	assert.True(t, sess.User.IsAdmin)
	assert.Equal(t, "admin", sess.User.Username)

	page, err := f.admin.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	assert.NoError(t, f.auth.EnsureAdmin(ctx, "", ""))
}

func TestEnsureAdminPromotesExistingAccount(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "boss")
	require.NoError(t, f.auth.EnsureAdmin(context.Background(), u.Email, "whatever"))

	got, err := f.auth.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
}
