package ws

import "encoding/json"

// Event is the server -> client frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// clientMessage is the client -> server frame; Data is decoded per event.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinUserPayload struct {
	UserID string `json:"userId"`
}

type joinClassPayload struct {
	ClassID string `json:"classId"`
}

type newCommentPayload struct {
	ClassID string `json:"classId"`
	Text    string `json:"text"`
}

type sendNotificationPayload struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Type   string `json:"type"`
	Link   string `json:"link"`
}

func errorEvent(message string) Event {
	return Event{Name: "error", Data: map[string]string{"message": message}}
}
