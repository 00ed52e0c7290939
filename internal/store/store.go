package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate")
)

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID             int64
	Text           string
	SenderEmail    string
	SenderUsername string
	MessageType    string
	CreatedAt      time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, email, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// ListUsers returns up to limit users ordered by ID, skipping offset.
	ListUsers(ctx context.Context, offset, limit int) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists msg and returns the stored row with its
	// assigned ID and timestamp. The argument is not modified.
	InsertMessage(ctx context.Context, msg *Message) (*Message, error)

	// RecentMessages returns at most limit messages, newest first.
	RecentMessages(ctx context.Context, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
