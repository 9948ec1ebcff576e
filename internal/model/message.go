package model

// MessageItem is one immutable chat message. Rows are append-only: nothing
// edits or deletes a message after createdAt has been assigned.
type MessageItem struct {
	PK                string `dynamodbav:"pk"`
	MessageID         string `dynamodbav:"messageId"`
	Channel           string `dynamodbav:"channel"`
	CorrespondentID   string `dynamodbav:"correspondentId"`
	CorrespondentName string `dynamodbav:"correspondentName,omitempty"`
	AuthorName        string `dynamodbav:"authorName,omitempty"`
	FromOperator      bool   `dynamodbav:"fromOperator"`
	Body              string `dynamodbav:"body,omitempty"`
	AttachmentURL     string `dynamodbav:"attachmentUrl,omitempty"`
	CreatedAt         string `dynamodbav:"createdAt"`
}

func MessagePK(channel, messageID string) string {
	return ChannelScopedPK(channel, messageID)
}
