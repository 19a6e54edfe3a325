package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// 客户端上行消息类型
const (
	MsgCreateRoom      = "createRoom"
	MsgJoinRoom        = "joinRoom"
	MsgStartGame       = "startGame"
	MsgShowWord        = "showWord"
	MsgStartDiscussion = "startDiscussion"
	MsgStartVoting     = "startVoting"
	MsgVote            = "vote"
	MsgRestartGame     = "restartGame"
	MsgLeaveRoom       = "leaveRoom"
	MsgPing            = "ping"
)

// 服务端直接回复的消息类型
const (
	MsgError = "error"
	MsgPong  = "pong"
)

// Error codes carried by error events.
const (
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeInvalidPhase     = "INVALID_PHASE"
	CodeNotHost          = "NOT_HOST"
	CodeNotEnoughPlayers = "NOT_ENOUGH_PLAYERS"
	CodeNameTaken        = "NAME_TAKEN"
	CodeRoomFull         = "ROOM_FULL"
	CodeVotingClosed     = "VOTING_CLOSED"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeMalformedMessage = "MALFORMED_MESSAGE"
	CodeDeliveryFailure  = "DELIVERY_FAILURE"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeServerShutdown   = "SERVER_SHUTDOWN"
)

const maxNameLength = 32

var ErrMalformedMessage = errors.New("malformed message")

// Settings 开始游戏时可选的设置覆盖，未提供的字段为 nil
type Settings struct {
	SpyCount              *int  `json:"spyCount,omitempty"`
	ShowSpyCountToPlayers *bool `json:"showSpyCountToPlayers,omitempty"`
	AllowSpyDiscussion    *bool `json:"allowSpyDiscussion,omitempty"`
	SpyHintsEnabled       *bool `json:"spyHintsEnabled,omitempty"`
}

// ClientMessage is the single envelope used for every client request.
type ClientMessage struct {
	Type          string    `json:"type"`
	RoomCode      string    `json:"roomCode,omitempty"`
	PlayerID      string    `json:"playerId,omitempty"`
	PlayerName    string    `json:"playerName,omitempty"`
	Category      string    `json:"category,omitempty"`
	Settings      *Settings `json:"settings,omitempty"`
	VotedPlayerID string    `json:"votedPlayerId,omitempty"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongEvent struct {
	Type string `json:"type"`
}

func NewError(code, message string) ErrorEvent {
	return ErrorEvent{Type: MsgError, Code: code, Message: message}
}

// Decode 解析并校验一条客户端消息。未知类型不算错误，由调用方忽略。
func Decode(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ClientMessage) validate() error {
	m.PlayerName = strings.TrimSpace(m.PlayerName)
	m.RoomCode = strings.TrimSpace(m.RoomCode)

	switch m.Type {
	case MsgCreateRoom:
		return m.requireName()
	case MsgJoinRoom:
		if m.RoomCode == "" {
			return fmt.Errorf("%w: missing roomCode", ErrMalformedMessage)
		}
		return m.requireName()
	case MsgVote:
		if m.VotedPlayerID == "" {
			return fmt.Errorf("%w: missing votedPlayerId", ErrMalformedMessage)
		}
	}
	return nil
}

func (m *ClientMessage) requireName() error {
	if m.PlayerName == "" {
		return fmt.Errorf("%w: missing playerName", ErrMalformedMessage)
	}
	if len([]rune(m.PlayerName)) > maxNameLength {
		return fmt.Errorf("%w: playerName too long", ErrMalformedMessage)
	}
	return nil
}
