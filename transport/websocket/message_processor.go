package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/usecase"
)

const (
	sendBufferSize = 16

	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

var errClientClosed = errors.New("client connection closed")

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	PlayerID    string                  `json:"player_id,omitempty"`
	SessionID   string                  `json:"session_id,omitempty"`
	Session     *usecase.SessionRequest `json:"session,omitempty"`
	Move        *entity.Move            `json:"move,omitempty"`
	Game        *game.View              `json:"game,omitempty"`
	Preferences *entity.Preferences     `json:"preferences,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// client is one websocket connection. Writes go through send so that delayed
// bot pushes and replies never interleave on the socket.
type client struct {
	conn     *websocket.Conn
	playerID string

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	sessionID string
}

func newClient(conn *websocket.Conn, playerID string) *client {
	return &client{
		conn:     conn,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

func (that *client) SessionID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.sessionID
}

func (that *client) SetSessionID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessionID = id
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *client) sendMessage(action string, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	response, err := json.Marshal(Message{Action: action, Payload: payloadJSON})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	select {
	case that.send <- response:
		return nil
	case <-that.done:
		return errClientClosed
	}
}

func (that *client) sendError(action string, err error) error {
	return that.sendMessage(action, Payload{Error: errorMessage(err)})
}

// writeLoop owns every write to the connection and pings it while idle.
func (that *client) writeLoop() error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to set write deadline: %w", err)
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		case <-ticker.C:
			if err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to ping: %w", err)
			}
		case <-that.done:
			return nil
		}
	}
}

var publicErrors = []error{
	apperror.ErrGameFinished,
	apperror.ErrIllegalMove,
	apperror.ErrNotYourTurn,
	apperror.ErrNothingToUndo,
	apperror.ErrNothingToRedo,
	apperror.ErrSessionNotFound,
	apperror.ErrUnknownMode,
	apperror.ErrUnknownDifficulty,
	apperror.ErrUnknownOpponent,
}

// errorMessage hides internal failures from the client.
func errorMessage(err error) string {
	for _, public := range publicErrors {
		if errors.Is(err, public) {
			return public.Error()
		}
	}

	return "internal error"
}
