package proto

// Inbound is a chat frame sent by the client.
type Inbound struct {
	Text        string `json:"text"`
	MessageType string `json:"message_type,omitempty"`
}

// ChatMessage is the outbound frame for broadcasts, history entries and
// server notices. Notices carry message_type "system" or "error"; error
// notices also set Code.
type ChatMessage struct {
	ID             int64  `json:"id"`
	Text           string `json:"text"`
	SenderEmail    string `json:"sender_email"`
	SenderUsername string `json:"sender_username"`
	Timestamp      string `json:"timestamp"`
	MessageType    string `json:"message_type"`
	Code           string `json:"code,omitempty"`
}

// TimestampLayout is the ISO-8601 layout used for ChatMessage.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"
