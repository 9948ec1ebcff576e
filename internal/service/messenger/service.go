package messenger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"lumenhaus-backend/internal/env"
	"lumenhaus-backend/internal/media"
	"lumenhaus-backend/internal/model"
)

// Service exposes the request/response operations over the message store:
// the storefront widget side and the operator console side. The stateful
// inbox surface lives in Session; both go through the same Store.
type Service struct {
	store    Store
	uploader media.Uploader
	now      func() time.Time
}

var (
	chatTokenSecret = []byte(env.Get(env.ChatTokenSecret))
	chatTokenTTL    = 30 * 24 * time.Hour
)

type chatTokenClaims struct {
	Channel         string `json:"channel"`
	CorrespondentID string `json:"correspondentId"`
	IssuedAt        int64  `json:"iat"`
	ExpiresAt       int64  `json:"exp"`
}

func SetChatTokenSecret(secret []byte) {
	if len(secret) == 0 {
		return
	}
	chatTokenSecret = make([]byte, len(secret))
	copy(chatTokenSecret, secret)
}

func SetChatTokenTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	chatTokenTTL = ttl
}

func New(store Store, uploader media.Uploader) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		now:      time.Now,
	}
}

func NewWithClock(store Store, uploader media.Uploader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:    store,
		uploader: uploader,
		now:      now,
	}
}

type PostCorrespondentMessageParams struct {
	Channel string
	Contact string
	Name    string
	Body    string
}

type CorrespondentMessageResult struct {
	Message   model.MessageItem
	ChatToken string
}

type ThreadResult struct {
	Channel         string
	CorrespondentID string
	Messages        []model.MessageItem
}

type ChatAccess struct {
	Channel         string
	CorrespondentID string
}

// PostCorrespondentMessage handles an inbound widget message. The contact
// address is the conversation key, so it has to look like one.
func (s *Service) PostCorrespondentMessage(ctx context.Context, params PostCorrespondentMessageParams) (CorrespondentMessageResult, error) {
	channel := strings.TrimSpace(params.Channel)
	if channel == "" {
		channel = model.DefaultChannel
	}

	contact := normalizeContact(params.Contact)
	if !isValidContact(contact) {
		return CorrespondentMessageResult{}, newError(ErrorCodeValidation, "a valid contact address is required", nil)
	}

	body := strings.TrimSpace(params.Body)
	if body == "" {
		return CorrespondentMessageResult{}, newError(ErrorCodeValidation, "message body is required", nil)
	}

	name := strings.TrimSpace(params.Name)
	author := name
	if author == "" {
		author = contact
	}

	msg := model.MessageItem{
		Channel:           channel,
		CorrespondentID:   contact,
		CorrespondentName: name,
		AuthorName:        author,
		FromOperator:      false,
		Body:              body,
	}

	messageID, err := s.store.Append(ctx, msg)
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return CorrespondentMessageResult{}, err
		}
		return CorrespondentMessageResult{}, newError(ErrorCodeAppendRejected, "failed to store message", err)
	}
	msg.MessageID = messageID

	now := s.now().UTC()
	token, err := signChatToken(chatTokenClaims{
		Channel:         channel,
		CorrespondentID: contact,
		IssuedAt:        now.Unix(),
		ExpiresAt:       now.Add(chatTokenTTL).Unix(),
	})
	if err != nil {
		return CorrespondentMessageResult{}, newError(ErrorCodeInternal, "failed to issue chat token", err)
	}

	return CorrespondentMessageResult{
		Message:   msg,
		ChatToken: token,
	}, nil
}

// ListCorrespondentThread returns the caller's own thread, gated by the chat
// token issued with their first message.
func (s *Service) ListCorrespondentThread(ctx context.Context, token string) (ThreadResult, error) {
	access, err := s.ValidateChatAccess(token)
	if err != nil {
		return ThreadResult{}, err
	}

	snapshot, err := s.store.Snapshot(ctx, access.Channel)
	if err != nil {
		return ThreadResult{}, newError(ErrorCodeInternal, "failed to load messages", err)
	}

	result := ThreadResult{
		Channel:         access.Channel,
		CorrespondentID: access.CorrespondentID,
		Messages:        []model.MessageItem{},
	}
	if conv, ok := Aggregate(snapshot)[access.CorrespondentID]; ok {
		result.Messages = conv.Messages
	}

	return result, nil
}

func (s *Service) ValidateChatAccess(token string) (ChatAccess, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ChatAccess{}, newError(ErrorCodeUnauthorized, "chat token required", nil)
	}

	claims, err := verifyChatToken(token, s.now)
	if err != nil {
		return ChatAccess{}, newError(ErrorCodeUnauthorized, "invalid chat token", err)
	}

	return ChatAccess{
		Channel:         claims.Channel,
		CorrespondentID: claims.CorrespondentID,
	}, nil
}

// ListConversations returns the aggregated inbox for the operator console,
// most recent activity first.
func (s *Service) ListConversations(ctx context.Context, channel string) ([]Conversation, error) {
	if channel == "" {
		channel = model.DefaultChannel
	}

	snapshot, err := s.store.Snapshot(ctx, channel)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to load messages", err)
	}

	return OrderConversations(Aggregate(snapshot)), nil
}

func (s *Service) GetConversation(ctx context.Context, channel, correspondentID string) (Conversation, error) {
	if channel == "" {
		channel = model.DefaultChannel
	}
	correspondentID = strings.TrimSpace(correspondentID)
	if correspondentID == "" {
		return Conversation{}, newError(ErrorCodeValidation, "conversation id is required", nil)
	}

	snapshot, err := s.store.Snapshot(ctx, channel)
	if err != nil {
		return Conversation{}, newError(ErrorCodeInternal, "failed to load messages", err)
	}

	conv, ok := Aggregate(snapshot)[correspondentID]
	if !ok {
		return Conversation{}, newError(ErrorCodeNotFound, "conversation not found", nil)
	}
	return conv, nil
}

// PostOperatorMessage appends an operator text reply to an existing
// conversation (console REST path; the inbox websocket goes through
// Session instead).
func (s *Service) PostOperatorMessage(ctx context.Context, operatorName, channel, correspondentID, body string) (model.MessageItem, error) {
	operatorName = strings.TrimSpace(operatorName)
	if operatorName == "" {
		return model.MessageItem{}, newError(ErrorCodeUnauthorized, "invalid operator identity", nil)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return model.MessageItem{}, newError(ErrorCodeValidation, "message body is required", nil)
	}

	conv, err := s.GetConversation(ctx, channel, correspondentID)
	if err != nil {
		return model.MessageItem{}, err
	}
	if channel == "" {
		channel = model.DefaultChannel
	}

	msg := model.MessageItem{
		Channel:           channel,
		CorrespondentID:   conv.ID,
		CorrespondentName: conv.DisplayName,
		AuthorName:        operatorName,
		FromOperator:      true,
		Body:              body,
	}

	messageID, err := s.store.Append(ctx, msg)
	if err != nil {
		return model.MessageItem{}, newError(ErrorCodeAppendRejected, "failed to send message", err)
	}
	msg.MessageID = messageID

	return msg, nil
}

// PostOperatorAttachment uploads the image first and only then appends the
// referencing message. An upload that succeeds before a rejected append
// leaves an orphaned file on the media host; accepted, not rolled back.
func (s *Service) PostOperatorAttachment(ctx context.Context, operatorName, channel, correspondentID, filename, contentType string, data io.Reader) (model.MessageItem, error) {
	operatorName = strings.TrimSpace(operatorName)
	if operatorName == "" {
		return model.MessageItem{}, newError(ErrorCodeUnauthorized, "invalid operator identity", nil)
	}

	conv, err := s.GetConversation(ctx, channel, correspondentID)
	if err != nil {
		return model.MessageItem{}, err
	}
	if channel == "" {
		channel = model.DefaultChannel
	}

	url, err := s.uploader.Upload(ctx, filename, contentType, data)
	if err != nil {
		return model.MessageItem{}, newError(ErrorCodeUploadFailed, "failed to upload image", err)
	}

	msg := model.MessageItem{
		Channel:           channel,
		CorrespondentID:   conv.ID,
		CorrespondentName: conv.DisplayName,
		AuthorName:        operatorName,
		FromOperator:      true,
		AttachmentURL:     url,
	}

	messageID, err := s.store.Append(ctx, msg)
	if err != nil {
		return model.MessageItem{}, newError(ErrorCodeAppendRejected, "failed to send image message", err)
	}
	msg.MessageID = messageID

	return msg, nil
}

// Badges projects the unread-thread counts for the navigation badges.
func (s *Service) Badges(ctx context.Context, channel string) (BadgeCounts, error) {
	if channel == "" {
		channel = model.DefaultChannel
	}

	snapshot, err := s.store.Snapshot(ctx, channel)
	if err != nil {
		return BadgeCounts{}, newError(ErrorCodeInternal, "failed to load messages", err)
	}

	return Project(Aggregate(snapshot)), nil
}

func signChatToken(claims chatTokenClaims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, chatTokenSecret)
	if _, err := mac.Write(payload); err != nil {
		return "", err
	}
	signature := mac.Sum(nil)

	payloadPart := base64.RawURLEncoding.EncodeToString(payload)
	sigPart := base64.RawURLEncoding.EncodeToString(signature)

	return fmt.Sprintf("%s.%s", payloadPart, sigPart), nil
}

func verifyChatToken(token string, now func() time.Time) (chatTokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return chatTokenClaims{}, errors.New("invalid token format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return chatTokenClaims{}, fmt.Errorf("decode payload: %w", err)
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return chatTokenClaims{}, fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, chatTokenSecret)
	if _, err := mac.Write(payload); err != nil {
		return chatTokenClaims{}, fmt.Errorf("sign payload: %w", err)
	}

	if !hmac.Equal(sig, mac.Sum(nil)) {
		return chatTokenClaims{}, errors.New("signature mismatch")
	}

	var claims chatTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return chatTokenClaims{}, fmt.Errorf("unmarshal claims: %w", err)
	}

	nowTime := now().UTC()
	if claims.ExpiresAt != 0 && nowTime.Unix() > claims.ExpiresAt {
		return chatTokenClaims{}, errors.New("token expired")
	}

	return claims, nil
}

func normalizeContact(contact string) string {
	contact = strings.TrimSpace(contact)
	return strings.ToLower(contact)
}

func isValidContact(contact string) bool {
	if contact == "" {
		return false
	}
	parts := strings.Split(contact, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	return true
}
