package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/recipechat-server/internal/metrics"
	"github.com/vovakirdan/recipechat-server/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxMessageTypeLen   = 32
)

// BridgeConfig tunes validation and history bounds.
type BridgeConfig struct {
	// MaxTextLength caps message text in runes; 0 disables the check.
	MaxTextLength int
	// DefaultHistory is used when History is called with limit <= 0.
	DefaultHistory int
	// MaxHistory caps any History request.
	MaxHistory int
}

// Bridge persists inbound chat messages and hands them to the dispatcher.
type Bridge struct {
	store      store.MessageStore
	dispatcher *Dispatcher
	cfg        BridgeConfig
	log        *zerolog.Logger
}

// NewBridge creates a bridge.
func NewBridge(st store.MessageStore, dispatcher *Dispatcher, cfg BridgeConfig, logger *zerolog.Logger) *Bridge {
	if cfg.DefaultHistory <= 0 {
		cfg.DefaultHistory = defaultHistoryLimit
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = cfg.DefaultHistory
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bridge{
		store:      st,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        logger,
	}
}

type chatRequest struct {
	Text        *string `json:"text"`
	MessageType *string `json:"message_type"`
}

// ParseRequest validates a raw inbound frame and returns the trimmed text
// and message type. Every failure wraps ErrMalformedMessage.
func (b *Bridge) ParseRequest(raw []byte) (text, messageType string, err error) {
	var req chatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", "", fmt.Errorf("%w: invalid json: %v", ErrMalformedMessage, err)
	}
	if req.Text == nil {
		return "", "", fmt.Errorf("%w: text is required", ErrMalformedMessage)
	}

	text = strings.TrimSpace(*req.Text)
	if text == "" {
		return "", "", fmt.Errorf("%w: text is empty", ErrMalformedMessage)
	}
	if b.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > b.cfg.MaxTextLength {
		return "", "", fmt.Errorf("%w: text exceeds %d characters", ErrMalformedMessage, b.cfg.MaxTextLength)
	}

	messageType = MessageTypeText
	if req.MessageType != nil && strings.TrimSpace(*req.MessageType) != "" {
		messageType = strings.TrimSpace(*req.MessageType)
	}
	switch {
	case messageType == MessageTypeSystem || messageType == MessageTypeError:
		return "", "", fmt.Errorf("%w: message_type %q is reserved", ErrMalformedMessage, messageType)
	case len(messageType) > maxMessageTypeLen:
		return "", "", fmt.Errorf("%w: message_type too long", ErrMalformedMessage)
	}

	return text, messageType, nil
}

// PersistAndBroadcast parses raw, stores it as a message from sender and
// broadcasts the stored message. Nothing is broadcast unless the insert
// succeeded.
func (b *Bridge) PersistAndBroadcast(ctx context.Context, raw []byte, sender Identity) (*Message, error) {
	text, messageType, err := b.ParseRequest(raw)
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(ErrCodeMalformedMessage).Inc()
		return nil, err
	}

	stored, err := b.store.InsertMessage(ctx, &store.Message{
		Text:           text,
		SenderEmail:    sender.Email,
		SenderUsername: sender.Username,
		MessageType:    messageType,
	})
	if err != nil {
		metrics.MessagesRejected.WithLabelValues(ErrCodePersistence).Inc()
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	metrics.MessagesPersisted.Inc()

	msg := messageFromStore(stored)
	result := b.dispatcher.Dispatch(ctx, msg)

	b.log.Debug().
		Int64("message_id", msg.ID).
		Str("sender", sender.Email).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Msg("message broadcast")

	return msg, nil
}

// History returns up to limit of the most recent messages in chronological
// order, oldest first. limit <= 0 selects the default; larger values are
// capped at the configured maximum.
func (b *Bridge) History(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = b.cfg.DefaultHistory
	}
	if limit > b.cfg.MaxHistory {
		limit = b.cfg.MaxHistory
	}

	rows, err := b.store.RecentMessages(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	messages := make([]*Message, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = messageFromStore(row)
	}
	return messages, nil
}
