package messenger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"lumenhaus-backend/internal/model"
)

// ErrSubscriptionLost marks a live subscription that terminated abnormally.
// Consumers resubscribe (with their own backoff) and show the view as stale
// until a fresh snapshot arrives.
var ErrSubscriptionLost = errors.New("messenger store: subscription lost")

// Store is the adapter over the append-only message store. Messages are
// immutable once accepted: no edits, no deletes, no reordering after
// createdAt has been assigned.
type Store interface {
	// Append validates the message, assigns messageId and createdAt
	// store-side and writes it durably. Failures surface to the caller;
	// there is no automatic retry.
	Append(ctx context.Context, msg model.MessageItem) (string, error)

	// Snapshot returns the full current message list for the channel,
	// ascending by createdAt.
	Snapshot(ctx context.Context, channel string) ([]model.MessageItem, error)

	// Subscribe emits the full current snapshot immediately (an empty list
	// when no messages exist yet) and a fresh full snapshot after every
	// change. Because the table is append-only, a later emission is always
	// a superset of an earlier one, in the same relative order.
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
}

// Subscription is one live snapshot stream. Each consumer holds its own;
// the store supports any number of independent subscribers per channel.
type Subscription struct {
	snapshots chan []model.MessageItem
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newSubscription() *Subscription {
	return &Subscription{
		snapshots: make(chan []model.MessageItem, 4),
		done:      make(chan struct{}),
	}
}

// Snapshots yields ordered full snapshots until the subscription ends. After
// the channel closes, Err reports whether the stream ended abnormally.
func (s *Subscription) Snapshots() <-chan []model.MessageItem {
	return s.snapshots
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// emit delivers a snapshot unless the consumer has closed the subscription.
// Only the pump goroutine may call emit, fail and finish.
func (s *Subscription) emit(msgs []model.MessageItem) bool {
	select {
	case s.snapshots <- msgs:
		return true
	case <-s.done:
		return false
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.snapshots)
}

func (s *Subscription) finish() {
	close(s.snapshots)
}

// validateMessage trims and checks the fields every append requires. Every
// Store implementation runs incoming messages through it before assigning
// messageId and createdAt.
func validateMessage(msg model.MessageItem) (model.MessageItem, error) {
	msg.Channel = strings.TrimSpace(msg.Channel)
	msg.CorrespondentID = strings.TrimSpace(msg.CorrespondentID)
	msg.Body = strings.TrimSpace(msg.Body)

	if msg.Channel == "" {
		return msg, newError(ErrorCodeValidation, "channel is required", nil)
	}
	if msg.CorrespondentID == "" {
		return msg, newError(ErrorCodeValidation, "correspondentId is required", nil)
	}
	if msg.Body == "" && msg.AttachmentURL == "" {
		return msg, newError(ErrorCodeValidation, "message needs a body or an attachment", nil)
	}
	return msg, nil
}

// sortMessages orders ascending by createdAt, messageId as tie-break so the
// order is stable for messages stamped in the same instant.
func sortMessages(messages []model.MessageItem) {
	sort.SliceStable(messages, func(i, j int) bool {
		ti := parseTime(messages[i].CreatedAt)
		tj := parseTime(messages[j].CreatedAt)
		if ti.Equal(tj) {
			return messages[i].MessageID < messages[j].MessageID
		}
		return ti.Before(tj)
	})
}

func parseTime(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
