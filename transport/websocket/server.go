package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/pkg"
	"github.com/HarshilD05/Super-XO/internal/usecase"
)

const (
	playerCookieName = "user_session"
	playerCookieTTL  = 24 * time.Hour
)

type gameUseCase interface {
	StartSession(ctx context.Context, playerID string, req usecase.SessionRequest) (*game.View, error)
	ActiveSessionID(ctx context.Context, playerID string) (string, error)

	State(ctx context.Context, sessionID string) (*game.View, error)
	Move(ctx context.Context, sessionID string, move entity.Move) (*game.View, error)
	Undo(ctx context.Context, sessionID string) (*game.View, error)
	Redo(ctx context.Context, sessionID string) (*game.View, error)
	Reset(ctx context.Context, sessionID string) (*game.View, error)

	PlanBotMove(ctx context.Context, sessionID string) (game.PendingMove, bool, error)
	CommitBotMove(ctx context.Context, sessionID string, pending game.PendingMove) (*game.View, error)

	GetPreferences(ctx context.Context, playerID string) (entity.Preferences, error)
	SetPreferences(ctx context.Context, playerID string, prefs entity.Preferences) (entity.Preferences, error)
	ClearPreferences(ctx context.Context, playerID string) (entity.Preferences, error)

	Release(sessionID string)
}

type handlerFunc func(ctx context.Context, client *client, msg *Message) error

type Server struct {
	logger         *slog.Logger
	gameUseCase    gameUseCase
	thinkDelay     time.Duration
	allowedOrigins []string
	upgrader       websocket.Upgrader

	handlers map[string]handlerFunc
}

// New returns a websocket server. Browsers may connect from the server's own
// host or from one of allowedOrigins; "*" allows any origin.
func New(logger *slog.Logger, gameUseCase gameUseCase, thinkDelay time.Duration, allowedOrigins []string) *Server {
	server := &Server{
		logger:         logger.With("component", "websocket"),
		gameUseCase:    gameUseCase,
		thinkDelay:     thinkDelay,
		allowedOrigins: allowedOrigins,
	}

	server.upgrader = websocket.Upgrader{
		CheckOrigin: server.checkOrigin,
	}

	server.handlers = map[string]handlerFunc{
		actionSessionNew: server.handleNewSession,
		actionGameMove:   server.handleGameMove,
		actionGameUndo:   server.handleGameUndo,
		actionGameRedo:   server.handleGameRedo,
		actionGameReset:  server.handleGameReset,
		actionGameState:  server.handleGameState,
		actionPrefsGet:   server.handlePrefsGet,
		actionPrefsSet:   server.handlePrefsSet,
		actionPrefsClear: server.handlePrefsClear,
	}

	return server
}

// Router returns the handler serving /ws.
func (that *Server) Router(ctx context.Context) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if slices.Contains(that.allowedOrigins, "*") {
		return true
	}

	for _, allowed := range that.allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, req.Host)
}

// upgradeToWebSocket - upgrades the connection and serves it until it closes.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	playerID, header := that.playerSession(req)

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	defer conn.Close()

	client := newClient(conn, playerID)
	defer client.close()

	log = log.With("playerID", playerID)
	log.Info("WebSocket connection established")

	go func() {
		if err := client.writeLoop(); err != nil {
			log.Error("error writing messages", "error", err)
			client.close()
			conn.Close()
		}
	}()

	that.resumeSession(ctx, client)

	if err = that.handleMessages(ctx, client); err != nil {
		log.Info("WebSocket connection closed", "error", err)
	}

	// the stored copy stays, a reconnect restores it
	if sessionID := client.SessionID(); sessionID != "" {
		that.gameUseCase.Release(sessionID)
	}
}

// playerSession reads the player cookie or issues a new one.
func (that *Server) playerSession(req *http.Request) (string, http.Header) {
	if cookie, err := req.Cookie(playerCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	cookie := &http.Cookie{
		Name:     playerCookieName,
		Value:    pkg.GenerateNewPlayerID(),
		Expires:  time.Now().Add(playerCookieTTL),
		Path:     "/ws",
		HttpOnly: true,
	}

	that.logger.Info("session cookie not found, new one created", "method", "playerSession", "cookie", cookie.Value)

	header := http.Header{}
	header.Add("Set-Cookie", cookie.String())

	return cookie.Value, header
}

// resumeSession sends the player's active session right after connecting.
func (that *Server) resumeSession(ctx context.Context, client *client) {
	log := that.logger.With("method", "resumeSession", "playerID", client.playerID)

	sessionID, err := that.gameUseCase.ActiveSessionID(ctx, client.playerID)
	if err != nil {
		log.Error("failed to get active session", "error", err)
		return
	}

	if sessionID == "" {
		if err = client.sendMessage(actionConnect, Payload{PlayerID: client.playerID}); err != nil {
			log.Error("failed to send response", "error", err)
		}
		return
	}

	view, err := that.gameUseCase.State(ctx, sessionID)
	if err != nil {
		log.Warn("active session is gone", "sessionID", sessionID, "error", err)
		if err = client.sendMessage(actionConnect, Payload{PlayerID: client.playerID}); err != nil {
			log.Error("failed to send response", "error", err)
		}
		return
	}

	client.SetSessionID(sessionID)

	if err = client.sendMessage(actionConnect, Payload{PlayerID: client.playerID, SessionID: sessionID, Game: view}); err != nil {
		log.Error("failed to send response", "error", err)
		return
	}

	that.scheduleBotMove(ctx, client, sessionID)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	log := that.logger.With("method", "handleMessages", "playerID", client.playerID)

	client.conn.SetReadLimit(4096)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("error reading message: %w", err)
		}

		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err = client.sendMessage(message.Action, Payload{Error: "unknown action"}); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// scheduleBotMove plans the bot reply now and commits it after the think
// delay. A reply planned for a position that changed in between is dropped.
func (that *Server) scheduleBotMove(ctx context.Context, client *client, sessionID string) {
	log := that.logger.With("method", "scheduleBotMove", "sessionID", sessionID)

	pending, planned, err := that.gameUseCase.PlanBotMove(ctx, sessionID)
	if err != nil {
		log.Error("failed to plan bot move", "error", err)
		return
	}

	if !planned {
		return
	}

	time.AfterFunc(that.thinkDelay, func() {
		view, err := that.gameUseCase.CommitBotMove(ctx, sessionID, pending)
		if err != nil {
			log.Debug("bot move dropped", "generation", pending.Generation, "error", err)
			return
		}

		if err = client.sendMessage(actionGameState, Payload{SessionID: sessionID, Game: view}); err != nil {
			log.Warn("failed to push bot move", "error", err)
		}
	})
}
