// Package protocol defines the JSON messages exchanged with game
// clients. Every frame is an envelope {"messageType": ..., "data": ...}
// where messageType names one of a closed set of payload kinds.
package protocol

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	MessageType string          `json:"messageType"`
	Data        json.RawMessage `json:"data"`
}

// Outbound is implemented by every server-to-client payload. The
// method is unexported so the set of kinds stays closed.
type Outbound interface {
	messageType() string
}

// ConfirmUsername tells one client who the server thinks they are.
type ConfirmUsername struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	IsHost bool   `json:"isHost"`
}

// PlayerSummary is one roster entry inside an UpdatePlayers frame.
type PlayerSummary struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	ID     string `json:"id"`
	IsHost bool   `json:"isHost"`
}

// UpdatePlayers is the full roster snapshot, sent to everyone whenever
// the roster changes. The data field is a bare array.
type UpdatePlayers []PlayerSummary

// GameStarting announces that the host pressed start; rounds follow
// after a short countdown.
type GameStarting struct{}

type RoundStart struct {
	RoundNumber int    `json:"roundNumber"`
	RoundLength int    `json:"roundLength"`
	VideoID     string `json:"videoId"`
	StartTime   int    `json:"startTime"`
}

type RoundEnd struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GameRunning is sent only to a player who joins mid-round, so their
// client can seek into the clip and show the time actually left.
type GameRunning struct {
	VideoID         string `json:"videoId"`
	StartTime       int    `json:"startTime"`
	RemainingLength int    `json:"remainingLength"`
}

// GuessResult is the private score report for a finalized guess.
type GuessResult struct {
	Distance        int     `json:"distance"`
	TargetLatitude  float64 `json:"targetLatitude"`
	TargetLongitude float64 `json:"targetLongitude"`
	Points          int     `json:"points"`
}

// BroadcastResult tells the whole room how far off a player was,
// without revealing their guess or points.
type BroadcastResult struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

func (ConfirmUsername) messageType() string { return "ConfirmUsername" }
func (UpdatePlayers) messageType() string   { return "UpdatePlayers" }
func (GameStarting) messageType() string    { return "GameStarting" }
func (RoundStart) messageType() string      { return "RoundStart" }
func (RoundEnd) messageType() string        { return "RoundEnd" }
func (GameRunning) messageType() string     { return "GameRunning" }
func (GuessResult) messageType() string     { return "GuessResult" }
func (BroadcastResult) messageType() string { return "BroadcastResult" }

// Marshal wraps an outbound payload in its envelope.
func Marshal(m Outbound) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding %s data: %w", m.messageType(), err)
	}
	return json.Marshal(envelope{MessageType: m.messageType(), Data: data})
}

// Inbound is implemented by every client-to-server payload.
type Inbound interface {
	isInbound()
}

// StartGame asks the session to begin a run. Only meaningful from the
// host; the session decides.
type StartGame struct{}

type Guess struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsFinal   bool    `json:"isFinal"`
}

func (StartGame) isInbound() {}
func (Guess) isInbound()     {}

// DecodeError reports a frame that could not be decoded. It is a
// per-message condition: the caller logs it and keeps reading.
type DecodeError struct {
	MessageType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.MessageType == "" {
		return fmt.Sprintf("decoding message: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s message: %v", e.MessageType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var decoders = map[string]func(json.RawMessage) (Inbound, error){
	"StartGame": func(json.RawMessage) (Inbound, error) {
		return StartGame{}, nil
	},
	"Guess": func(data json.RawMessage) (Inbound, error) {
		var g Guess
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return g, nil
	},
}

// Decode parses one inbound frame into its typed payload. Unknown or
// empty message types are decode errors, never panics.
func Decode(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if env.MessageType == "" {
		return nil, &DecodeError{Err: fmt.Errorf("no message type provided")}
	}

	decode, ok := decoders[env.MessageType]
	if !ok {
		return nil, &DecodeError{
			MessageType: env.MessageType,
			Err:         fmt.Errorf("unsupported message type"),
		}
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	msg, err := decode(data)
	if err != nil {
		return nil, &DecodeError{MessageType: env.MessageType, Err: err}
	}
	return msg, nil
}
