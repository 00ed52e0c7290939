package http

import (
	"time"

	"github.com/vovakirdan/recipechat-server/internal/core"
	"github.com/vovakirdan/recipechat-server/internal/proto"
)

const systemUsername = "System"

func chatMessageFromCore(msg *core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:             msg.ID,
		Text:           msg.Text,
		SenderEmail:    msg.SenderEmail,
		SenderUsername: msg.SenderUsername,
		Timestamp:      msg.Timestamp.UTC().Format(proto.TimestampLayout),
		MessageType:    msg.MessageType,
	}
}

func chatMessagesFromCore(messages []*core.Message) []proto.ChatMessage {
	out := make([]proto.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, chatMessageFromCore(msg))
	}
	return out
}

// welcomeNotice greets a freshly admitted connection. It is not persisted
// and carries id 0.
func welcomeNotice(identity core.Identity) proto.ChatMessage {
	return proto.ChatMessage{
		Text:           "Welcome to chat, " + identity.Email + "!",
		SenderEmail:    core.SystemSender,
		SenderUsername: systemUsername,
		Timestamp:      time.Now().UTC().Format(proto.TimestampLayout),
		MessageType:    core.MessageTypeSystem,
	}
}

// errorNotice reports err to the connection that caused it.
func errorNotice(err error) proto.ChatMessage {
	return proto.ChatMessage{
		Text:           "Error: " + noticeText(err),
		SenderEmail:    core.SystemSender,
		SenderUsername: systemUsername,
		Timestamp:      time.Now().UTC().Format(proto.TimestampLayout),
		MessageType:    core.MessageTypeError,
		Code:           core.ErrorCode(err),
	}
}

// noticeText keeps store and driver details out of client-facing text.
func noticeText(err error) string {
	switch core.ErrorCode(err) {
	case core.ErrCodeMalformedMessage, core.ErrCodeRateLimited:
		return err.Error()
	case core.ErrCodePersistence:
		return "message could not be saved"
	default:
		return "internal error"
	}
}
