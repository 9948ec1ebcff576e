package websocket

type Room struct {
	Id              string               `json:"id"`
	Channel         string               `json:"channel"`
	CorrespondentID string               `json:"correspondentId"`
	Clients         map[string]*WSClient `json:"clients"`
}

type WSMessage struct {
	Content   string `json:"content"`
	RoomID    string `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

type RoomRes struct {
	ID              string `json:"id"`
	CorrespondentID string `json:"correspondentId"`
}
