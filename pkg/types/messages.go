// Package types is the JSON wire protocol spoken over the websocket.
//
// Every frame is an object with exactly one key naming the message kind:
//
//	{"PlayBoard": {"session_id": "...", "board_id": "...", "pos": [2, 3]}}
package types

import (
	"encoding/json"
	"fmt"
)

// Color is the colour a player was seated with.
type Color string

const (
	ColorBlack Color = "Black"
	ColorWhite Color = "White"
)

// Pos is a board coordinate, encoded as [x, y].
type Pos [2]int

func (p Pos) X() int { return p[0] }
func (p Pos) Y() int { return p[1] }

// Score is encoded as [black, white].
type Score [2]int

func (s Score) Black() int { return s[0] }
func (s Score) White() int { return s[1] }

// A longer array would otherwise be truncated silently.
func (p *Pos) UnmarshalJSON(data []byte) error   { return pair((*[2]int)(p), data) }
func (s *Score) UnmarshalJSON(data []byte) error { return pair((*[2]int)(s), data) }

func pair(dst *[2]int, data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("want 2 elements, got %d", len(v))
	}
	dst[0], dst[1] = v[0], v[1]
	return nil
}

const (
	KindConnectingParam = "ConnectingParam"
	KindJoinBoard       = "JoinBoard"
	KindPlayBoard       = "PlayBoard"
	KindGameOver        = "GameOver"

	KindConnectedParam       = "ConnectedParam"
	KindJoinedBoard          = "JoinedBoard"
	KindOpponentJoinedBoard  = "OpponentJoinedBoard"
	KindPlayedBoard          = "PlayedBoard"
	KindOpponentDisconnected = "OpponentDisconnected"
)

// Client -> Server

type Request interface {
	Kind() string
	isRequest()
}

// ConnectingParam binds a nickname to the caller's session.
type ConnectingParam struct {
	Nickname string `json:"nickname" validate:"required,max=32"`
}

type JoinBoard struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
}

type PlayBoard struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
	BoardID   string `json:"board_id" validate:"required,max=64"`
	Pos       Pos    `json:"pos"`
}

// GameOver tells the server the sender has seen the end of the game.
type GameOver struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
	BoardID   string `json:"board_id" validate:"required,max=64"`
	Score     Score  `json:"score" validate:"dive,min=0,max=64"`
}

func (ConnectingParam) Kind() string { return KindConnectingParam }
func (JoinBoard) Kind() string       { return KindJoinBoard }
func (PlayBoard) Kind() string       { return KindPlayBoard }
func (GameOver) Kind() string        { return KindGameOver }

func (ConnectingParam) isRequest() {}
func (JoinBoard) isRequest()       {}
func (PlayBoard) isRequest()       {}
func (GameOver) isRequest()        {}

// Server -> Client

type Response interface {
	Kind() string
	isResponse()
}

type ConnectedParam struct {
	SessionID  string `json:"session_id"`
	UsersCount int    `json:"users_count"`
}

type JoinedBoard struct {
	SessionID string  `json:"session_id"`
	BoardID   string  `json:"board_id"`
	Color     Color   `json:"color"`
	Opponent  *string `json:"opponent"` // null while waiting for a second player
}

// OpponentJoinedBoard is sent to the waiting black player.
type OpponentJoinedBoard struct {
	SessionID string `json:"session_id"`
	BoardID   string `json:"board_id"`
	Opponent  string `json:"opponent"`
}

// PlayedBoard relays the opponent's move. SessionID is the receiver's.
type PlayedBoard struct {
	SessionID string `json:"session_id"`
	BoardID   string `json:"board_id"`
	Pos       Pos    `json:"pos"`
}

// OpponentDisconnected carries the receiver's own session id.
type OpponentDisconnected struct {
	SessionID string `json:"session_id"`
	BoardID   string `json:"board_id"`
}

func (ConnectedParam) Kind() string       { return KindConnectedParam }
func (JoinedBoard) Kind() string          { return KindJoinedBoard }
func (OpponentJoinedBoard) Kind() string  { return KindOpponentJoinedBoard }
func (PlayedBoard) Kind() string          { return KindPlayedBoard }
func (OpponentDisconnected) Kind() string { return KindOpponentDisconnected }

func (ConnectedParam) isResponse()       {}
func (JoinedBoard) isResponse()          {}
func (OpponentJoinedBoard) isResponse()  {}
func (PlayedBoard) isResponse()          {}
func (OpponentDisconnected) isResponse() {}
