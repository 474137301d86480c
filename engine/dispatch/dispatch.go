// Package dispatch decides which inbound conversation events trigger
// retrieval and hands accepted work to a background queue so the
// webhook request never waits on processing.
package dispatch

import (
	"strings"

	"github.com/aibroker/support-assistant/engine/domain"
)

// Decision classifies an inbound event.
type Decision int

const (
	// Accept means the event should trigger retrieval.
	Accept Decision = iota
	// IgnoreOutgoing: the message is our own or an operator's reply.
	IgnoreOutgoing
	// IgnoreBotSender: the sender is the bot itself (feedback loop guard).
	IgnoreBotSender
	// IgnoreOtherEvent: not a message_created event, or no message attached.
	IgnoreOtherEvent
	// IgnoreMissingData: no conversation id or empty content.
	IgnoreMissingData
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case IgnoreOutgoing:
		return "outgoing_message"
	case IgnoreBotSender:
		return "bot_message"
	case IgnoreOtherEvent:
		return "other_event"
	case IgnoreMissingData:
		return "insufficient_data"
	default:
		return "unknown"
	}
}

// Classify applies the filter rules in order: event type, message
// direction, sender identity, then data completeness.
func Classify(ev domain.ConversationEvent) Decision {
	if ev.Event != domain.EventMessageCreated || ev.Message == nil {
		return IgnoreOtherEvent
	}
	if ev.Message.MessageType == domain.MessageOutgoing {
		return IgnoreOutgoing
	}
	if ev.Message.Sender.Type == domain.SenderAgentBot {
		return IgnoreBotSender
	}
	if ev.Conversation.ID == 0 || strings.TrimSpace(ev.Message.Content) == "" {
		return IgnoreMissingData
	}
	return Accept
}

// Job is one accepted unit of retrieval work.
type Job struct {
	ConversationID int64  `json:"conversation_id"`
	Content        string `json:"content"`
}

// JobFrom extracts the retrieval job from an accepted event.
func JobFrom(ev domain.ConversationEvent) Job {
	return Job{
		ConversationID: ev.Conversation.ID,
		Content:        ev.Message.Content,
	}
}
