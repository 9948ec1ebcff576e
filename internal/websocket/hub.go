package websocket

import "sync"

// Hub owns the room registry. Client membership is only mutated inside Run;
// the registry itself is guarded by mu because rooms are created from HTTP
// handler goroutines.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	Register   chan *WSClient
	Unregister chan *WSClient
	Broadcast  chan *WSMessage
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		Register:   make(chan *WSClient),
		Unregister: make(chan *WSClient),
		Broadcast:  make(chan *WSMessage),
	}
}

func (h *Hub) room(id string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	return room, ok
}

// addRoom registers the room unless one with the same id already exists.
func (h *Hub) addRoom(room *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.rooms[room.Id]; exists {
		return false
	}
	h.rooms[room.Id] = room
	return true
}

func (h *Hub) roomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) roomList() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			room, ok := h.room(client.RoomID)
			if !ok {
				continue
			}
			room.Clients[client.ID] = client
			incConnections()

		case client := <-h.Unregister:
			room, ok := h.room(client.RoomID)
			if !ok {
				continue
			}
			if _, ok := room.Clients[client.ID]; ok {
				delete(room.Clients, client.ID)
				close(client.Message)
				decConnections()
			}

		case message := <-h.Broadcast:
			room, ok := h.room(message.RoomID)
			if !ok {
				continue
			}
			delivered := 0
			for _, client := range room.Clients {
				select {
				case client.Message <- message:
					delivered++
				default:
					// slow consumer, drop the connection rather than the room
					close(client.Message)
					delete(room.Clients, client.ID)
					decConnections()
				}
			}
			if delivered > 0 {
				addDelivered(delivered)
			}
		}
	}
}
