package core

import (
	"strings"
	"time"

	"github.com/vovakirdan/recipechat-server/internal/store"
)

// Message types.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
	MessageTypeError  = "error"
)

// SystemSender is the sender email used for frames the server authors itself.
const SystemSender = "system"

// Identity is who a connection or message belongs to.
type Identity struct {
	Email    string
	Username string
}

// IdentityVerifier turns a bearer token into an Identity.
// Failures wrap ErrAuth.
type IdentityVerifier interface {
	Verify(token string) (Identity, error)
}

// UsernameFromEmail returns the local part of an email address,
// or the whole string when it has no '@'.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// Message is the domain model for a chat message.
// It is immutable once persisted.
type Message struct {
	ID             int64
	Text           string
	SenderEmail    string
	SenderUsername string
	MessageType    string
	Timestamp      time.Time
}

func messageFromStore(m *store.Message) *Message {
	return &Message{
		ID:             m.ID,
		Text:           m.Text,
		SenderEmail:    m.SenderEmail,
		SenderUsername: m.SenderUsername,
		MessageType:    m.MessageType,
		Timestamp:      m.CreatedAt,
	}
}
