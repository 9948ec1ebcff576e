package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"lumenhaus-backend/internal/model"
	"lumenhaus-backend/internal/service/messenger"
)

// inboxCommand is one frame sent by the admin console over the inbox socket.
type inboxCommand struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	Body           string `json:"body,omitempty"`
	Filename       string `json:"filename,omitempty"`
	ContentType    string `json:"contentType,omitempty"`
	Data           string `json:"data,omitempty"`
}

type inboxMessage struct {
	MessageID     string `json:"messageId"`
	AuthorName    string `json:"authorName"`
	FromOperator  bool   `json:"fromOperator"`
	Body          string `json:"body,omitempty"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

type inboxConversation struct {
	ID                 string         `json:"id"`
	DisplayName        string         `json:"displayName"`
	HasUnread          bool           `json:"hasUnread"`
	LastMessagePreview string         `json:"lastMessagePreview"`
	Messages           []inboxMessage `json:"messages"`
}

type inboxUpdateFrame struct {
	Type          string                `json:"type"`
	Conversations []inboxConversation   `json:"conversations"`
	Selected      string                `json:"selected,omitempty"`
	Badges        messenger.BadgeCounts `json:"badges"`
}

type inboxStatusFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func toInboxConversations(conversations []messenger.Conversation) []inboxConversation {
	out := make([]inboxConversation, 0, len(conversations))
	for _, conv := range conversations {
		messages := make([]inboxMessage, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			messages = append(messages, inboxMessage{
				MessageID:     msg.MessageID,
				AuthorName:    msg.AuthorName,
				FromOperator:  msg.FromOperator,
				Body:          msg.Body,
				AttachmentURL: msg.AttachmentURL,
				CreatedAt:     msg.CreatedAt,
			})
		}
		out = append(out, inboxConversation{
			ID:                 conv.ID,
			DisplayName:        conv.DisplayName,
			HasUnread:          conv.HasUnread,
			LastMessagePreview: conv.LastMessagePreview,
			Messages:           messages,
		})
	}
	return out
}

// inboxConn serializes writes to one upgraded connection; gorilla allows a
// single concurrent writer.
type inboxConn struct {
	conn interface {
		WriteJSON(v interface{}) error
	}
	mu sync.Mutex
}

func (c *inboxConn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// ServeInbox opens one operator inbox session over a websocket and returns
// once its pumps are running, so the HTTP worker is not held for the session
// lifetime. Snapshot updates stream out; select and send commands come in.
// When the live stream drops, the console is told the view is stale and the
// session resubscribes with backoff, keeping selection and the last view
// intact.
func (h *Handler) ServeInbox(w http.ResponseWriter, r *http.Request, operatorName string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	incInboxSessions()

	ctx, cancel := context.WithCancel(context.Background())

	out := &inboxConn{conn: conn}
	session := messenger.NewSession(h.store, h.uploader, model.DefaultChannel, operatorName)

	session.OnUpdate(func(u messenger.Update) {
		frame := inboxUpdateFrame{
			Type:          "update",
			Conversations: toInboxConversations(u.Conversations),
			Selected:      u.Selected,
			Badges:        h.mergePendingCounts(ctx, u.Badges),
		}
		if err := out.write(frame); err != nil {
			log.Printf("inbox session for %s: write update: %v", operatorName, err)
			cancel()
		}
	})

	go h.readInboxCommands(ctx, cancel, conn, out, session, operatorName)
	go h.runInboxSession(ctx, cancel, conn, out, session, operatorName)
}

func (h *Handler) runInboxSession(ctx context.Context, cancel context.CancelFunc, conn io.Closer, out *inboxConn, session *messenger.Session, operatorName string) {
	defer decInboxSessions()
	defer conn.Close()
	defer cancel()

	backoff := time.Second
	for {
		err := session.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			return
		}

		log.Printf("inbox session for %s: stream lost: %v", operatorName, err)
		if writeErr := out.write(inboxStatusFrame{Type: "stale"}); writeErr != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (h *Handler) readInboxCommands(ctx context.Context, cancel context.CancelFunc, conn interface {
	ReadJSON(v interface{}) error
}, out *inboxConn, session *messenger.Session, operatorName string) {
	defer cancel()

	for {
		var cmd inboxCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if ctx.Err() == nil {
				log.Printf("inbox session for %s: read: %v", operatorName, err)
			}
			return
		}

		var cmdErr error
		switch cmd.Type {
		case "select":
			cmdErr = session.Select(cmd.ConversationID)
		case "sendText":
			cmdErr = session.SendText(ctx, cmd.Body)
		case "sendImage":
			data, err := base64.StdEncoding.DecodeString(cmd.Data)
			if err != nil {
				cmdErr = err
				break
			}
			cmdErr = session.SendImage(ctx, cmd.Filename, cmd.ContentType, bytes.NewReader(data))
		default:
			cmdErr = errors.New("unknown command type")
		}

		if cmdErr != nil {
			// command failures keep the session alive; the console decides
			// whether to retry
			frame := inboxStatusFrame{Type: "error", Message: cmdErr.Error()}
			var svcErr *messenger.Error
			if errors.As(cmdErr, &svcErr) {
				frame.Code = string(svcErr.Code)
			}
			if err := out.write(frame); err != nil {
				return
			}
		}
	}
}

func (h *Handler) mergePendingCounts(ctx context.Context, badges messenger.BadgeCounts) messenger.BadgeCounts {
	if h.inquiries == nil {
		return badges
	}

	counts, err := h.inquiries.PendingCounts(ctx)
	if err != nil {
		log.Printf("inbox badges: pending inquiry counts: %v", err)
		return badges
	}

	for category, count := range counts {
		badges = badges.WithCategory(category, count)
	}
	return badges
}
