package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/dto"
	internaljwt "lumenhaus-backend/internal/jwt"
	"lumenhaus-backend/internal/model"
	"lumenhaus-backend/internal/service/inquiry"
	"lumenhaus-backend/internal/service/messenger"
)

type memoryStore struct {
	mu       sync.Mutex
	now      time.Time
	messages map[string][]model.MessageItem
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		now:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		messages: make(map[string][]model.MessageItem),
	}
}

func (m *memoryStore) Append(ctx context.Context, msg model.MessageItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Channel == "" || msg.CorrespondentID == "" || (msg.Body == "" && msg.AttachmentURL == "") {
		return "", errors.New("invalid message")
	}

	m.now = m.now.Add(time.Second)
	msg.MessageID = fmt.Sprintf("msg-%d", len(m.messages[msg.Channel])+1)
	msg.CreatedAt = m.now.Format(time.RFC3339Nano)
	m.messages[msg.Channel] = append(m.messages[msg.Channel], msg)
	return msg.MessageID, nil
}

func (m *memoryStore) Snapshot(ctx context.Context, channel string) ([]model.MessageItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MessageItem, len(m.messages[channel]))
	copy(out, m.messages[channel])
	return out, nil
}

func (m *memoryStore) Subscribe(ctx context.Context, channel string) (*messenger.Subscription, error) {
	return nil, errors.New("not supported in tests")
}

type memoryInquiryRepository struct {
	mu    sync.Mutex
	items map[model.InquiryCategory]map[string]model.InquiryItem
}

func newMemoryInquiryRepository() *memoryInquiryRepository {
	return &memoryInquiryRepository{
		items: map[model.InquiryCategory]map[string]model.InquiryItem{
			model.InquiryCategoryQuote:       {},
			model.InquiryCategoryContact:     {},
			model.InquiryCategoryApplication: {},
		},
	}
}

func (m *memoryInquiryRepository) Create(ctx context.Context, item model.InquiryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.Category][item.InquiryID] = item
	return nil
}

func (m *memoryInquiryRepository) Get(ctx context.Context, category model.InquiryCategory, inquiryID string) (model.InquiryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[category][inquiryID]
	if !ok {
		table, _ := model.InquiryTableFor(category)
		return model.InquiryItem{}, fmt.Errorf("item not found in %s", table)
	}
	return item, nil
}

func (m *memoryInquiryRepository) List(ctx context.Context, category model.InquiryCategory, status model.InquiryStatus) ([]model.InquiryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.InquiryItem
	for _, item := range m.items[category] {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryInquiryRepository) CountPending(ctx context.Context, category model.InquiryCategory) (int, error) {
	items, err := m.List(ctx, category, model.InquiryStatusPending)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (m *memoryInquiryRepository) MarkHandled(ctx context.Context, category model.InquiryCategory, inquiryID, handledBy, handledAt string) (model.InquiryItem, error) {
	item, err := m.Get(ctx, category, inquiryID)
	if err != nil {
		return model.InquiryItem{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item.Status = model.InquiryStatusHandled
	item.HandledBy = handledBy
	item.HandledAt = handledAt
	m.items[category][inquiryID] = item
	return item, nil
}

func newTestEndpoints(store *memoryStore, inquiries *inquiry.Service) MessengerEndpoints {
	messenger.SetChatTokenSecret([]byte("endpoint-test-secret"))
	service := messenger.New(store, nil)
	return NewMessengerEndpoints(service, inquiries, nil, MessengerPaths{
		PublicChatMessagesPath: "/api/public/v1/chat/messages",
		ConversationsPath:      "/api/admin/v1/inbox/conversations",
		ConversationPrefix:     "/api/admin/v1/inbox/conversations/",
		BadgesPath:             "/api/admin/v1/inbox/badges",
	})
}

func operatorToken(t *testing.T, name string) string {
	t.Helper()
	token, err := internaljwt.CreateToken(internaljwt.Operator{
		Id:    "op-1",
		Email: "marta@lumenhaus.com",
		Name:  name,
	}, internaljwt.RoleOperator, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("create operator token: %v", err)
	}
	return token
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	return httpErr.StatusCode
}

func TestPublicChatMessagesPostAndRead(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	body, _ := json.Marshal(dto.PostChatMessageRequest{
		Name:  "Anna",
		Email: "anna@example.com",
		Body:  "do you stock the Oslo pendant?",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/chat/messages", bytes.NewReader(body))

	if err := h.PublicChatMessages(rec, req); err != nil {
		t.Fatalf("PublicChatMessages error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp dto.PostChatMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ChatToken == "" || resp.Message.FromOperator {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/public/v1/chat/messages?token="+resp.ChatToken, nil)
	if err := h.PublicChatMessages(rec, req); err != nil {
		t.Fatalf("list thread error: %v", err)
	}

	var thread dto.ThreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Body != "do you stock the Oslo pendant?" {
		t.Fatalf("unexpected thread: %+v", thread)
	}
}

func TestPublicChatMessagesValidation(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	body, _ := json.Marshal(dto.PostChatMessageRequest{
		Name:  "Anna",
		Email: "not-an-address",
		Body:  "hello",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/chat/messages", bytes.NewReader(body))

	err := h.PublicChatMessages(rec, req)
	if status := statusOf(t, err); status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestPublicChatMessagesRejectsBadToken(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/chat/messages?token=garbage", nil)

	err := h.PublicChatMessages(rec, req)
	if status := statusOf(t, err); status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func seedConversation(t *testing.T, store *memoryStore, contact, body string) {
	t.Helper()
	if _, err := store.Append(context.Background(), model.MessageItem{
		Channel:           model.DefaultChannel,
		CorrespondentID:   contact,
		CorrespondentName: strings.Split(contact, "@")[0],
		AuthorName:        strings.Split(contact, "@")[0],
		Body:              body,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestConversationsListAndMessages(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	seedConversation(t, store, "anna@example.com", "older")
	seedConversation(t, store, "ben@example.com", "newer")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/inbox/conversations", nil)
	if err := h.Conversations(rec, req); err != nil {
		t.Fatalf("Conversations error: %v", err)
	}

	var resp dto.ListConversationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(resp.Conversations) != 2 || resp.Conversations[0].ID != "ben@example.com" {
		t.Fatalf("unexpected conversation order: %+v", resp.Conversations)
	}
	if !resp.Conversations[0].HasUnread {
		t.Fatal("inbound conversation must be unread")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/inbox/conversations/anna@example.com/messages", nil)
	if err := h.ConversationActions(rec, req); err != nil {
		t.Fatalf("ConversationActions error: %v", err)
	}

	var conv dto.ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if conv.Conversation.ID != "anna@example.com" || len(conv.Messages) != 1 {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestPostOperatorMessageEndpoint(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)
	seedConversation(t, store, "anna@example.com", "question")

	body, _ := json.Marshal(dto.PostOperatorMessageRequest{Body: "answer"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/inbox/conversations/anna@example.com/messages", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, "Marta"))

	if err := h.ConversationActions(rec, req); err != nil {
		t.Fatalf("ConversationActions error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var msg dto.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if !msg.FromOperator || msg.AuthorName != "Marta" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestPostOperatorMessageUnknownConversationEndpoint(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	body, _ := json.Marshal(dto.PostOperatorMessageRequest{Body: "hello?"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/inbox/conversations/nobody@example.com/messages", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, "Marta"))

	err := h.ConversationActions(rec, req)
	if status := statusOf(t, err); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestBadgesMergesInquiryCounts(t *testing.T) {
	store := newMemoryStore()
	repo := newMemoryInquiryRepository()
	inquiries := inquiry.NewWithRepository(repo)
	h := newTestEndpoints(store, inquiries)

	seedConversation(t, store, "anna@example.com", "unanswered")
	if _, err := inquiries.SubmitQuoteRequest(context.Background(), inquiry.QuoteRequestParams{
		Name:  "Ben",
		Email: "ben@example.com",
		Body:  "bulk pricing",
	}); err != nil {
		t.Fatalf("SubmitQuoteRequest error: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/inbox/badges", nil)
	if err := h.Badges(rec, req); err != nil {
		t.Fatalf("Badges error: %v", err)
	}

	var badges dto.BadgesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &badges); err != nil {
		t.Fatalf("decode badges: %v", err)
	}
	if badges.TotalUnreadThreads != 1 {
		t.Fatalf("expected 1 unread thread, got %d", badges.TotalUnreadThreads)
	}
	if badges.PerCategory["quote"] != 1 || badges.PerCategory["messenger"] != 1 {
		t.Fatalf("unexpected categories: %+v", badges.PerCategory)
	}
	if badges.Total != 2 {
		t.Fatalf("expected total 2, got %d", badges.Total)
	}
}

func TestRoomsUnavailableWithoutWebsocketHandler(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ws/v1/rooms", nil)

	err := h.Rooms(rec, req)
	if status := statusOf(t, err); status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	store := newMemoryStore()
	h := newTestEndpoints(store, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/inbox/conversations", nil)

	err := h.Conversations(rec, req)
	if status := statusOf(t, err); status != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", status)
	}
}
