package messenger

import (
	"context"
	"io"
	"strings"
	"sync"

	"lumenhaus-backend/internal/media"
	"lumenhaus-backend/internal/model"
)

// Update is pushed to the session consumer after every applied snapshot.
// Conversations carry the inbox ordering (most recent first).
type Update struct {
	Conversations []Conversation
	Selected      string
	Badges        BadgeCounts
}

// Session is the state machine behind one open admin inbox: the active
// selection plus the send operations racing against the live stream.
//
// The store is the single source of truth. A successful send does not splice
// a local message into the view; the conversation changes only when the next
// subscription snapshot reflects it. Sends capture their target conversation
// at call entry, so concurrent sends to different conversations cannot be
// misattributed, and switching the selection never cancels a send already in
// flight.
type Session struct {
	store        Store
	uploader     media.Uploader
	channel      string
	operatorName string

	onUpdate func(Update)

	mu            sync.Mutex
	selected      string
	conversations map[string]Conversation
	ordered       []Conversation
}

func NewSession(store Store, uploader media.Uploader, channel, operatorName string) *Session {
	if channel == "" {
		channel = model.DefaultChannel
	}
	return &Session{
		store:         store,
		uploader:      uploader,
		channel:       channel,
		operatorName:  strings.TrimSpace(operatorName),
		conversations: make(map[string]Conversation),
	}
}

// OnUpdate registers the consumer hook. Set it before Run; the hook runs on
// the subscription goroutine.
func (s *Session) OnUpdate(fn func(Update)) {
	s.onUpdate = fn
}

// Run subscribes and applies snapshots until the context ends or the stream
// is lost. A subscription_lost error means the caller should resubscribe
// with backoff while showing the current view as stale; selection and the
// last applied snapshot survive across Run calls.
func (s *Session) Run(ctx context.Context) error {
	sub, err := s.store.Subscribe(ctx, s.channel)
	if err != nil {
		return newError(ErrorCodeSubscriptionLost, "failed to open message stream", err)
	}
	defer sub.Close()

	for snapshot := range sub.Snapshots() {
		s.apply(snapshot)
	}

	if err := sub.Err(); err != nil {
		return newError(ErrorCodeSubscriptionLost, "live message stream terminated", err)
	}
	return nil
}

func (s *Session) apply(messages []model.MessageItem) {
	conversations := Aggregate(messages)
	ordered := OrderConversations(conversations)

	s.mu.Lock()
	s.conversations = conversations
	s.ordered = ordered
	if s.selected == "" && len(ordered) > 0 {
		s.selected = ordered[0].ID
	}
	update := Update{
		Conversations: ordered,
		Selected:      s.selected,
		Badges:        Project(conversations),
	}
	hook := s.onUpdate
	s.mu.Unlock()

	if hook != nil {
		hook(update)
	}
}

// Select opens a conversation. Re-selecting while another is open is a
// direct transition; there is no close step.
func (s *Session) Select(correspondentID string) error {
	correspondentID = strings.TrimSpace(correspondentID)
	if correspondentID == "" {
		return newError(ErrorCodeValidation, "conversation id is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[correspondentID]; !ok {
		return newError(ErrorCodeNotFound, "conversation not found", nil)
	}
	s.selected = correspondentID
	return nil
}

func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Active returns the currently open conversation as of the last snapshot.
func (s *Session) Active() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[s.selected]
	return conv, ok
}

// SendText appends an operator text message to the open conversation. On
// failure the caller keeps the composed text for retry; nothing was written.
func (s *Session) SendText(ctx context.Context, body string) error {
	target, displayName, err := s.target()
	if err != nil {
		return err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return newError(ErrorCodeValidation, "message body is required", nil)
	}

	msg := model.MessageItem{
		Channel:           s.channel,
		CorrespondentID:   target,
		CorrespondentName: displayName,
		AuthorName:        s.operatorName,
		FromOperator:      true,
		Body:              body,
	}

	if _, err := s.store.Append(ctx, msg); err != nil {
		return newError(ErrorCodeAppendRejected, "failed to send message", err)
	}
	return nil
}

// SendImage uploads the binary first and appends a message referencing the
// returned URL. When the upload succeeds but the append is rejected, the
// hosted file stays behind without a referencing message; that orphan is
// accepted and never rolled back here.
func (s *Session) SendImage(ctx context.Context, filename, contentType string, data io.Reader) error {
	target, displayName, err := s.target()
	if err != nil {
		return err
	}

	url, err := s.uploader.Upload(ctx, filename, contentType, data)
	if err != nil {
		return newError(ErrorCodeUploadFailed, "failed to upload image", err)
	}

	msg := model.MessageItem{
		Channel:           s.channel,
		CorrespondentID:   target,
		CorrespondentName: displayName,
		AuthorName:        s.operatorName,
		FromOperator:      true,
		AttachmentURL:     url,
	}

	if _, err := s.store.Append(ctx, msg); err != nil {
		return newError(ErrorCodeAppendRejected, "failed to send image message", err)
	}
	return nil
}

// target snapshots the selection at call entry. In-flight sends keep this
// target regardless of later selection changes.
func (s *Session) target() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == "" {
		return "", "", newError(ErrorCodeNoSelection, "no conversation selected", nil)
	}
	displayName := s.conversations[s.selected].DisplayName
	return s.selected, displayName, nil
}
