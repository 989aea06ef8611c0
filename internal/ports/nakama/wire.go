package nakama

import (
	"encoding/json"
	"fmt"

	"bigtwo/internal/domain"
)

// Every outbound message is a tagged envelope so clients can decode by the
// type string without tracking op codes alongside payload shapes.
type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encodeWire(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		raw = data
	}
	return json.Marshal(wireMessage{Type: msgType, Payload: raw})
}

// Client requests.

type playCardsRequest struct {
	Cards     []domain.Card `json:"cards"`
	Positions []int         `json:"positions,omitempty"`
}

type toggleReadyRequest struct {
	Ready bool `json:"ready"`
}

// Server payloads not covered by the app event structs.

type joinedRoomPayload struct {
	Seat     int    `json:"seat"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	HostSeat int    `json:"host_seat"`
}

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type readyStatePayload struct {
	Seat   int    `json:"seat"`
	UserID string `json:"user_id"`
	Ready  bool   `json:"ready"`
}

type hostChangedPayload struct {
	HostSeat int    `json:"host_seat"`
	HostUser string `json:"host_user"`
}

type playerSnapshot struct {
	Seat           int    `json:"seat"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	IsHost         bool   `json:"is_host"`
	IsBot          bool   `json:"is_bot"`
	Ready          bool   `json:"ready"`
	CardsRemaining int    `json:"cards_remaining"`
	Balance        int64  `json:"balance"`
}

type roomSnapshotPayload struct {
	RoomCode string           `json:"room_code,omitempty"`
	HostSeat int              `json:"host_seat"`
	Phase    string           `json:"phase"`
	Players  []playerSnapshot `json:"players"`
}

type barrierReleasedPayload struct {
	Barrier string `json:"barrier"`
}

// Match label, serialized as JSON so MatchList label queries can filter on
// its keys.
type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

func (l matchLabel) encode() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
