package dto

type PostChatMessageRequest struct {
	Channel string `json:"channel,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Body    string `json:"body"`
}

type MessageResponse struct {
	MessageID     string `json:"messageId"`
	AuthorName    string `json:"authorName"`
	FromOperator  bool   `json:"fromOperator"`
	Body          string `json:"body,omitempty"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

type PostChatMessageResponse struct {
	Message   MessageResponse `json:"message"`
	ChatToken string          `json:"chatToken"`
}

type ThreadResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type ConversationMetadata struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"displayName"`
	HasUnread          bool   `json:"hasUnread"`
	LastMessagePreview string `json:"lastMessagePreview"`
	LastMessageAt      string `json:"lastMessageAt,omitempty"`
	MessageCount       int    `json:"messageCount"`
}

type ListConversationsResponse struct {
	Conversations []ConversationMetadata `json:"conversations"`
}

type ConversationResponse struct {
	Conversation ConversationMetadata `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}

type PostOperatorMessageRequest struct {
	Body string `json:"body"`
}

type BadgesResponse struct {
	TotalUnreadThreads int            `json:"totalUnreadThreads"`
	PerCategory        map[string]int `json:"perCategory"`
	Total              int            `json:"total"`
}
