package domain

// Sender types reported by the conversation platform.
const (
	// SenderAgentBot identifies our own bot account. Messages from it
	// must never trigger retrieval (feedback loop guard).
	SenderAgentBot = "agent_bot"
)

// Message types within a conversation event.
const (
	MessageIncoming = "incoming"
	MessageOutgoing = "outgoing"
)

// EventMessageCreated is the only webhook event that can trigger retrieval.
const EventMessageCreated = "message_created"

// Sender is the author of an inbound message.
type Sender struct {
	Type string `json:"type"`
}

// Message is the message portion of a conversation event.
type Message struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Sender      Sender `json:"sender"`
}

// Conversation carries the conversation identity of an event.
type Conversation struct {
	ID int64 `json:"id"`
}

// ConversationEvent is one inbound webhook notification. It is
// transient: consumed once by the dispatch filter, never persisted.
type ConversationEvent struct {
	Event        string       `json:"event"`
	AccountID    int64        `json:"account_id"`
	Conversation Conversation `json:"conversation"`
	Message      *Message     `json:"message,omitempty"`
}
