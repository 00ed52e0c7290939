package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/recipechat-server/internal/store/sqlite"
)

func newTestAuthService(t *testing.T) (*Service, *JWTConfig) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret: []byte("test-secret-change-me"),
		TTL:    24 * time.Hour,
	}

	return NewService(st, jwtConfig), jwtConfig
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "not-an-email", "", "password123")
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestRegister_RejectsInvalidPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "abc@example.com", "", "12345")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestRegister_DefaultsUsernameAndRejectsDuplicate(t *testing.T) {
	svc, cfg := newTestAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, " Alice@Example.com ", "", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "alice", user.Username)

	verifier, err := NewVerifier(cfg)
	require.NoError(t, err)
	id, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", id.Email)
	require.Equal(t, "alice", id.Username)

	_, _, err = svc.Register(ctx, "alice@example.com", "other", "password123")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "bob@example.com", "chef-bob", "password123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "BOB@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = svc.Login(ctx, "bob@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Profile(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "chef-bob", user.Username)
}

func TestRegister_UsernameLengthCountsRunes(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	// 18 runes, 34 bytes.
	_, user, err := svc.Register(ctx, "chef@example.com", "Шеф Повар Иванович", "password123")
	require.NoError(t, err)
	require.Equal(t, "Шеф Повар Иванович", user.Username)

	_, _, err = svc.Register(ctx, "long@example.com", strings.Repeat("ж", 33), "password123")
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestRegister_TruncatesDerivedUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	local := strings.Repeat("a", 40)
	_, user, err := svc.Register(context.Background(), local+"@example.com", "", "password123")
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("a", 32), user.Username)
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "Шеф", truncateRunes("Шеф Повар", 3))
	require.Equal(t, "abc", truncateRunes("abc", 10))
	require.Equal(t, "", truncateRunes("abc", 0))
}
