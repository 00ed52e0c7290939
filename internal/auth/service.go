package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/recipechat-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned when the email is not a valid address.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// bcryptCost is the cost used for new password hashes.
const bcryptCost = 10

// maxUsernameLen is measured in runes.
const maxUsernameLen = 32

var validate = validator.New()

// Service provides account operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a user and returns a JWT for it. An empty username
// defaults to the local part of the email.
func (s *Service) Register(ctx context.Context, email, username, password string) (string, *store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email,max=100"); err != nil {
		return "", nil, ErrInvalidEmail
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = truncateRunes(strings.SplitN(email, "@", 2)[0], maxUsernameLen)
	}
	if n := utf8.RuneCountInString(username); n < 1 || n > maxUsernameLen {
		return "", nil, ErrInvalidUsername
	}
	// bcrypt ignores bytes past 72.
	if len(password) < 6 || len(password) > 72 {
		return "", nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", nil, ErrUserExists
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.Email, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Login validates credentials and returns a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if errPwd := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); errPwd != nil {
		return "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.jwtConfig, user.Email, user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// Profile returns the stored user for email.
func (s *Service) Profile(ctx context.Context, email string) (*store.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

func truncateRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
