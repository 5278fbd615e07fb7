package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/superxo"
	"github.com/HarshilD05/Super-XO/internal/usecase"
)

const (
	actionConnect    = "connect"
	actionSessionNew = "session:new"
	actionGameMove   = "game:move"
	actionGameUndo   = "game:undo"
	actionGameRedo   = "game:redo"
	actionGameReset  = "game:reset"
	actionGameState  = "game:state"
	actionPrefsGet   = "prefs:get"
	actionPrefsSet   = "prefs:set"
	actionPrefsClear = "prefs:clear"
)

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func (that *Server) handleNewSession(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleNewSession", "playerID", client.playerID)

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	var req usecase.SessionRequest
	if payload.Session != nil {
		req = *payload.Session
	}

	view, err := that.gameUseCase.StartSession(ctx, client.playerID, req)
	if err != nil {
		log.Error("failed to start session", "error", err)
		return client.sendError(msg.Action, err)
	}

	client.SetSessionID(view.ID)

	if err = client.sendMessage(actionGameState, Payload{SessionID: view.ID, Game: view}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	that.scheduleBotMove(ctx, client, view.ID)

	log.Info("session started", "sessionID", view.ID)

	return nil
}

func (that *Server) handleGameMove(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payload.Move == nil {
		return client.sendMessage(msg.Action, Payload{Error: "Move is required"})
	}

	move := *payload.Move
	if !move.IsValid(superxo.BoardCount) {
		return client.sendError(msg.Action, fmt.Errorf("%w: board %d cell %d", apperror.ErrIllegalMove, move.Board, move.Cell))
	}

	return that.applyGameAction(ctx, client, msg.Action, payload, func(sessionID string) (*game.View, error) {
		return that.gameUseCase.Move(ctx, sessionID, move)
	})
}

func (that *Server) handleGameUndo(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	return that.applyGameAction(ctx, client, msg.Action, payload, func(sessionID string) (*game.View, error) {
		return that.gameUseCase.Undo(ctx, sessionID)
	})
}

func (that *Server) handleGameRedo(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	return that.applyGameAction(ctx, client, msg.Action, payload, func(sessionID string) (*game.View, error) {
		return that.gameUseCase.Redo(ctx, sessionID)
	})
}

func (that *Server) handleGameReset(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	return that.applyGameAction(ctx, client, msg.Action, payload, func(sessionID string) (*game.View, error) {
		return that.gameUseCase.Reset(ctx, sessionID)
	})
}

func (that *Server) handleGameState(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	sessionID, err := that.sessionFor(ctx, client, payload)
	if err != nil {
		return client.sendError(msg.Action, err)
	}

	view, err := that.gameUseCase.State(ctx, sessionID)
	if err != nil {
		return client.sendError(msg.Action, err)
	}

	return client.sendMessage(actionGameState, Payload{SessionID: sessionID, Game: view})
}

// applyGameAction runs a session change, answers with the new state and lets
// the bot reply when it is its turn.
func (that *Server) applyGameAction(
	ctx context.Context,
	client *client,
	action string,
	payload Payload,
	change func(sessionID string) (*game.View, error),
) error {
	log := that.logger.With("method", "applyGameAction", "action", action, "playerID", client.playerID)

	sessionID, err := that.sessionFor(ctx, client, payload)
	if err != nil {
		return client.sendError(action, err)
	}

	view, err := change(sessionID)
	if err != nil {
		log.Debug("action rejected", "sessionID", sessionID, "error", err)
		return client.sendError(action, err)
	}

	if err = client.sendMessage(actionGameState, Payload{SessionID: sessionID, Game: view}); err != nil {
		return fmt.Errorf("failed to send game update: %w", err)
	}

	that.scheduleBotMove(ctx, client, sessionID)

	return nil
}

// sessionFor picks the session named in the payload, else the connection's.
// A player may only act on their own active session.
func (that *Server) sessionFor(ctx context.Context, client *client, payload Payload) (string, error) {
	current := client.SessionID()

	if payload.SessionID == "" || payload.SessionID == current {
		if current == "" {
			return "", apperror.ErrSessionNotFound
		}
		return current, nil
	}

	active, err := that.gameUseCase.ActiveSessionID(ctx, client.playerID)
	if err != nil {
		return "", fmt.Errorf("failed to get active session: %w", err)
	}

	if active != payload.SessionID {
		that.logger.Warn("foreign session rejected", "method", "sessionFor", "playerID", client.playerID, "sessionID", payload.SessionID)
		return "", apperror.ErrSessionNotFound
	}

	client.SetSessionID(active)

	return active, nil
}

func (that *Server) handlePrefsGet(ctx context.Context, client *client, msg *Message) error {
	prefs, err := that.gameUseCase.GetPreferences(ctx, client.playerID)
	if err != nil {
		return client.sendError(msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{PlayerID: client.playerID, Preferences: &prefs})
}

func (that *Server) handlePrefsSet(ctx context.Context, client *client, msg *Message) error {
	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	if payload.Preferences == nil {
		return client.sendMessage(msg.Action, Payload{Error: "Preferences are required"})
	}

	prefs, err := that.gameUseCase.SetPreferences(ctx, client.playerID, entity.Preferences{
		Difficulty: payload.Preferences.Difficulty,
		Mode:       payload.Preferences.Mode,
	})
	if err != nil {
		return client.sendError(msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{PlayerID: client.playerID, Preferences: &prefs})
}

func (that *Server) handlePrefsClear(ctx context.Context, client *client, msg *Message) error {
	prefs, err := that.gameUseCase.ClearPreferences(ctx, client.playerID)
	if err != nil {
		return client.sendError(msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{PlayerID: client.playerID, Preferences: &prefs})
}
