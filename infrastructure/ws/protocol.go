// Package ws exposes the real-time core over a WebSocket connection. Every
// frame is a JSON envelope {"event": ..., "data": ...}; outbound event names
// come from the domain events themselves.
package ws

import (
	"encoding/json"
	"fmt"

	"huddle/domain"
)

// Client-to-server event names.
const (
	evtJoinRoom      = "join-room"
	evtLeaveRoom     = "leave-room"
	evtSendMessage   = "send-message"
	evtEditMessage   = "edit-message"
	evtDeleteMessage = "delete-message"
	evtTypingStart   = "typing-start"
	evtTypingStop    = "typing-stop"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEvent wraps a domain event in its wire envelope.
func encodeEvent(e domain.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	return json.Marshal(envelope{Event: e.Name(), Data: data})
}

type sendMessagePayload struct {
	Content   string `json:"content"`
	ChannelID string `json:"channelId"`
}

type editMessagePayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	ChannelID string `json:"channelId"`
}

type deleteMessagePayload struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
}

// decodeChannelID accepts both a bare string channel identity and the
// {"channelId": ...} object form for room and typing events.
func decodeChannelID(data json.RawMessage) (string, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var obj struct {
		ChannelID string `json:"channelId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("invalid channel payload: %w", err)
	}
	return obj.ChannelID, nil
}
