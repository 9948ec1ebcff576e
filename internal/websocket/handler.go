package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"lumenhaus-backend/internal/env"
	"lumenhaus-backend/internal/media"
	"lumenhaus-backend/internal/service/inquiry"
	"lumenhaus-backend/internal/service/messenger"
)

var (
	upgrader    websocket.Upgrader
	redisClient *redis.Client
)

func init() {
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:     env.Get(env.ChatRedisURL),
		Password: env.Get(env.ChatRedisPass),
		DB:       0,
	})
}

// RedisClient exposes the chat pub/sub connection shared with the message
// store.
func RedisClient() *redis.Client {
	return redisClient
}

// Handler serves both websocket surfaces: per-correspondent widget rooms fed
// by the change feed, and the operator inbox sessions in inbox.go.
type Handler struct {
	hub       *Hub
	redis     *redis.Client
	store     messenger.Store
	uploader  media.Uploader
	inquiries *inquiry.Service
}

func NewHandler(h *Hub, store messenger.Store, uploader media.Uploader, inquiries *inquiry.Service) *Handler {
	return &Handler{
		hub:       h,
		redis:     redisClient,
		store:     store,
		uploader:  uploader,
		inquiries: inquiries,
	}
}

func chatRoomID(channel, correspondentID string) string {
	return channel + "#" + correspondentID
}

// subscribeToChangeFeed relays change events for one correspondent from the
// channel-wide Redis feed into that correspondent's room. Events belonging to
// other conversations are dropped before broadcast.
func (h *Handler) subscribeToChangeFeed(channel, correspondentID string) {
	roomID := chatRoomID(channel, correspondentID)
	if _, exists := h.hub.room(roomID); !exists {
		log.Printf("room %s not found for subscription", roomID)
		return
	}
	if h.redis == nil {
		return
	}

	subscriber := h.redis.Subscribe(context.Background(), messenger.ChangeFeedChannel(channel))
	defer subscriber.Close()

	ch := subscriber.Channel()
	for msg := range ch {
		var event messenger.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("change feed %s: bad payload: %v", channel, err)
			continue
		}
		if event.CorrespondentID != correspondentID {
			continue
		}

		h.hub.Broadcast <- &WSMessage{
			Content:   msg.Payload,
			RoomID:    roomID,
			Timestamp: time.Now().Unix(),
		}
	}
	log.Printf("unsubscribed from change feed for room %s", roomID)
}

// CreateChatRoom registers the widget room for one correspondent and starts
// its change feed relay. Creating an existing room is a no-op.
func (h *Handler) CreateChatRoom(channel, correspondentID string) string {
	roomID := chatRoomID(channel, correspondentID)
	room := &Room{
		Id:              roomID,
		Channel:         channel,
		CorrespondentID: correspondentID,
		Clients:         make(map[string]*WSClient),
	}

	if !h.hub.addRoom(room) {
		return roomID
	}
	setRooms(h.hub.roomCount())

	go h.subscribeToChangeFeed(channel, correspondentID)
	return roomID
}

// JoinChatRoom upgrades the widget connection and attaches it to the
// correspondent's room.
func (h *Handler) JoinChatRoom(w http.ResponseWriter, r *http.Request, channel, correspondentID, clientID string) {
	roomID := h.CreateChatRoom(channel, correspondentID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cl := &WSClient{
		Conn:     conn,
		Message:  make(chan *WSMessage, 10),
		ID:       clientID,
		RoomID:   roomID,
		done:     make(chan struct{}),
		isClosed: false,
	}

	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h.hub)
}

func (h *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	rooms := make([]RoomRes, 0)

	for _, room := range h.hub.roomList() {
		rooms = append(rooms, RoomRes{
			ID:              room.Id,
			CorrespondentID: room.CorrespondentID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rooms)
}
