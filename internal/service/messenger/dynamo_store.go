package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lumenhaus-backend/internal/database"
	"lumenhaus-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ChangeFeedChannel is the Redis pub/sub channel carrying change events for
// one chat channel. The widget websocket rooms and every store subscription
// listen on the same feed.
func ChangeFeedChannel(channel string) string {
	return "chat:" + channel + ":events"
}

// ChangeEvent is the payload published after a successful append. Widget
// clients render it directly; store subscriptions only treat it as a signal
// to re-query the authoritative table.
type ChangeEvent struct {
	Type            string `json:"type"`
	Channel         string `json:"channel"`
	MessageID       string `json:"messageId"`
	CorrespondentID string `json:"correspondentId"`
	AuthorName      string `json:"authorName,omitempty"`
	FromOperator    bool   `json:"fromOperator"`
	Body            string `json:"body,omitempty"`
	AttachmentURL   string `json:"attachmentUrl,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

// DynamoStore keeps messages in DynamoDB and fans out change notifications
// over Redis pub/sub.
type DynamoStore struct {
	db    *database.Database
	redis *redis.Client
	now   func() time.Time
}

func NewDynamoStore(db *database.Database, redisClient *redis.Client) *DynamoStore {
	return &DynamoStore{
		db:    db,
		redis: redisClient,
		now:   time.Now,
	}
}

func (s *DynamoStore) Append(ctx context.Context, msg model.MessageItem) (string, error) {
	msg, err := validateMessage(msg)
	if err != nil {
		return "", err
	}

	msg.MessageID = uuid.NewString()
	msg.CreatedAt = s.now().UTC().Format(time.RFC3339Nano)
	msg.PK = model.MessagePK(msg.Channel, msg.MessageID)

	if err := s.db.Client.PutItem(ctx, model.MessagesTable, msg); err != nil {
		return "", err
	}

	s.publishChange(ctx, msg)

	return msg.MessageID, nil
}

// publishChange is best-effort: the message is already durable, a missed
// event only delays subscribers until the next one.
func (s *DynamoStore) publishChange(ctx context.Context, msg model.MessageItem) {
	event := ChangeEvent{
		Type:            "message.created",
		Channel:         msg.Channel,
		MessageID:       msg.MessageID,
		CorrespondentID: msg.CorrespondentID,
		AuthorName:      msg.AuthorName,
		FromOperator:    msg.FromOperator,
		Body:            msg.Body,
		AttachmentURL:   msg.AttachmentURL,
		CreatedAt:       msg.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("messenger store: marshal change event: %v", err)
		return
	}

	if err := s.redis.Publish(ctx, ChangeFeedChannel(msg.Channel), string(payload)).Err(); err != nil {
		log.Printf("messenger store: publish change event for %s: %v", msg.Channel, err)
	}
}

func (s *DynamoStore) Snapshot(ctx context.Context, channel string) ([]model.MessageItem, error) {
	items, err := s.db.Client.QueryAll(
		ctx,
		model.MessagesTable,
		aws.String("byChannel"),
		"channel = :channel",
		map[string]types.AttributeValue{
			":channel": &types.AttributeValueMemberS{Value: channel},
		},
	)
	if err != nil && !isIndexNotFound(err) {
		return nil, err
	}

	if err != nil && isIndexNotFound(err) {
		items, err = s.db.Client.ScanItems(
			ctx,
			model.MessagesTable,
			"channel = :channel",
			map[string]types.AttributeValue{
				":channel": &types.AttributeValueMemberS{Value: channel},
			},
			nil,
		)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]model.MessageItem, 0, len(items))
	for _, item := range items {
		var msg model.MessageItem
		if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
			return nil, err
		}
		if msg.Channel != channel || msg.CorrespondentID == "" {
			continue
		}
		messages = append(messages, msg)
	}

	sortMessages(messages)

	return messages, nil
}

func (s *DynamoStore) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := s.redis.Subscribe(ctx, ChangeFeedChannel(channel))

	initial, err := s.Snapshot(ctx, channel)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := newSubscription()

	go func() {
		defer pubsub.Close()

		if !sub.emit(initial) {
			sub.finish()
			return
		}

		events := pubsub.Channel()
		for {
			select {
			case <-sub.done:
				sub.finish()
				return
			case <-ctx.Done():
				sub.finish()
				return
			case _, ok := <-events:
				if !ok {
					sub.fail(ErrSubscriptionLost)
					return
				}
				snapshot, err := s.Snapshot(ctx, channel)
				if err != nil {
					sub.fail(fmt.Errorf("%w: reload snapshot: %v", ErrSubscriptionLost, err))
					return
				}
				if !sub.emit(snapshot) {
					sub.finish()
					return
				}
			}
		}
	}()

	return sub, nil
}

func isIndexNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "index") && strings.Contains(msg, "not") && strings.Contains(msg, "found")
}
