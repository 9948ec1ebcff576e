package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lumenhaus-backend/internal/model"
	"lumenhaus-backend/internal/service/messenger"
)

type stubStore struct{}

func (stubStore) Append(ctx context.Context, msg model.MessageItem) (string, error) {
	return "", errors.New("append not supported")
}

func (stubStore) Snapshot(ctx context.Context, channel string) ([]model.MessageItem, error) {
	return nil, nil
}

func (stubStore) Subscribe(ctx context.Context, channel string) (*messenger.Subscription, error) {
	return nil, errors.New("subscribe not supported")
}

type scriptedConn struct {
	commands []inboxCommand
}

func (c *scriptedConn) ReadJSON(v interface{}) error {
	if len(c.commands) == 0 {
		return errors.New("connection closed")
	}
	*(v.(*inboxCommand)) = c.commands[0]
	c.commands = c.commands[1:]
	return nil
}

type recordingConn struct {
	mu     sync.Mutex
	frames []interface{}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *recordingConn) statusFrames() []inboxStatusFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []inboxStatusFrame
	for _, f := range c.frames {
		if status, ok := f.(inboxStatusFrame); ok {
			out = append(out, status)
		}
	}
	return out
}

func TestReadInboxCommandsReportsFailuresWithoutClosing(t *testing.T) {
	h := &Handler{store: stubStore{}}
	session := messenger.NewSession(stubStore{}, nil, model.DefaultChannel, "Marta")

	conn := &scriptedConn{commands: []inboxCommand{
		{Type: "sendText", Body: "hello"},
		{Type: "poke"},
	}}
	writes := &recordingConn{}
	out := &inboxConn{conn: writes}

	ctx, cancel := context.WithCancel(context.Background())
	h.readInboxCommands(ctx, cancel, conn, out, session, "Marta")

	if ctx.Err() == nil {
		t.Fatal("expected context cancelled after connection close")
	}

	frames := writes.statusFrames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 error frames, got %d", len(frames))
	}
	if frames[0].Type != "error" || frames[0].Code != "no_selection" {
		t.Fatalf("unexpected first frame: %+v", frames[0])
	}
	if frames[1].Type != "error" || frames[1].Code != "" {
		t.Fatalf("unexpected second frame: %+v", frames[1])
	}
}

func TestReadInboxCommandsRejectsBadImagePayload(t *testing.T) {
	h := &Handler{store: stubStore{}}
	session := messenger.NewSession(stubStore{}, nil, model.DefaultChannel, "Marta")

	conn := &scriptedConn{commands: []inboxCommand{
		{Type: "sendImage", Filename: "lamp.png", ContentType: "image/png", Data: "not-base64!!"},
	}}
	writes := &recordingConn{}
	out := &inboxConn{conn: writes}

	ctx, cancel := context.WithCancel(context.Background())
	h.readInboxCommands(ctx, cancel, conn, out, session, "Marta")

	frames := writes.statusFrames()
	if len(frames) != 1 || frames[0].Type != "error" {
		t.Fatalf("expected one error frame, got %+v", frames)
	}
}

func TestToInboxConversations(t *testing.T) {
	conversations := []messenger.Conversation{
		{
			ID:                 "anna@example.com",
			DisplayName:        "Anna",
			HasUnread:          true,
			LastMessagePreview: "[photo]",
			Messages: []model.MessageItem{
				{MessageID: "msg-1", AuthorName: "Anna", AttachmentURL: "https://media/lamp.png", CreatedAt: "2024-03-01T09:00:00Z"},
			},
		},
	}

	out := toInboxConversations(conversations)
	if len(out) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(out))
	}
	if out[0].ID != "anna@example.com" || !out[0].HasUnread || out[0].LastMessagePreview != "[photo]" {
		t.Fatalf("unexpected conversation: %+v", out[0])
	}
	if len(out[0].Messages) != 1 || out[0].Messages[0].AttachmentURL != "https://media/lamp.png" {
		t.Fatalf("unexpected messages: %+v", out[0].Messages)
	}
}

func TestChatRoomID(t *testing.T) {
	if got := chatRoomID("storefront", "anna@example.com"); got != "storefront#anna@example.com" {
		t.Fatalf("unexpected room id: %s", got)
	}
}
