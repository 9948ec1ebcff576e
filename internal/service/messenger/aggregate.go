package messenger

import (
	"sort"
	"time"

	"lumenhaus-backend/internal/model"
)

// AttachmentPreview is the fixed conversation-list preview for a newest
// message that carries an image and no text.
const AttachmentPreview = "[photo]"

// Conversation is the derived, per-correspondent projection of the message
// stream. It is never stored: every snapshot recomputes it in full.
type Conversation struct {
	ID                 string
	DisplayName        string
	Messages           []model.MessageItem
	HasUnread          bool
	LastMessagePreview string
}

// Aggregate folds a timestamp-ordered message list into one conversation per
// correspondent. DisplayName, HasUnread and LastMessagePreview come from the
// newest message of each group only: a single operator reply clears the
// unread flag no matter how many correspondent messages preceded it.
//
// Aggregate is a pure re-derivation. It keeps no state between calls, so a
// replayed or re-subscribed snapshot produces identical output. Input is
// assumed well-formed; the store adapter rejects messages without a
// correspondent before they get here.
func Aggregate(messages []model.MessageItem) map[string]Conversation {
	groups := make(map[string][]model.MessageItem)
	for _, msg := range messages {
		groups[msg.CorrespondentID] = append(groups[msg.CorrespondentID], msg)
	}

	conversations := make(map[string]Conversation, len(groups))
	for id, msgs := range groups {
		last := msgs[len(msgs)-1]

		preview := last.Body
		if preview == "" {
			preview = AttachmentPreview
		}

		conversations[id] = Conversation{
			ID:                 id,
			DisplayName:        last.CorrespondentName,
			Messages:           msgs,
			HasUnread:          !last.FromOperator,
			LastMessagePreview: preview,
		}
	}

	return conversations
}

// OrderConversations returns the inbox ordering: most recent activity first,
// correspondent id as tie-break.
func OrderConversations(conversations map[string]Conversation) []Conversation {
	ordered := make([]Conversation, 0, len(conversations))
	for _, conv := range conversations {
		ordered = append(ordered, conv)
	}

	sort.Slice(ordered, func(i, j int) bool {
		ti := lastMessageTime(ordered[i])
		tj := lastMessageTime(ordered[j])
		if ti.Equal(tj) {
			return ordered[i].ID < ordered[j].ID
		}
		return ti.After(tj)
	})

	return ordered
}

func lastMessageTime(conv Conversation) time.Time {
	if len(conv.Messages) == 0 {
		return time.Time{}
	}
	return parseTime(conv.Messages[len(conv.Messages)-1].CreatedAt)
}
