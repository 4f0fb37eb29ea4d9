package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 90 * time.Second
	maxMessage = 64 * 1024
)

// Handler WebSocket动作分发处理器
type Handler struct {
	oracle   *oracle.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(svc *oracle.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		oracle: svc,
		logger: logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// Inbound message types.
const (
	TypeAction   = "action"
	TypeSnapshot = "snapshot"
	TypePing     = "ping"
)

// Outbound message types.
const (
	TypeState = "state"
	TypeDelta = "delta"
	TypeError = "error"
	TypePong  = "pong"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.oracle.Snapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.logger.Debug("websocket connected", zap.String("session", sessionID))
	if err := h.send(conn, outgoingMessage{Type: TypeState, SessionID: sessionID, Data: state}); err != nil {
		return
	}

	h.readLoop(r.Context(), conn, sessionID)
	h.logger.Debug("websocket closed", zap.String("session", sessionID))
}

// readLoop handles one message at a time, so at most one model call per connection is in flight.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sessionID string) {
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.handleMessage(ctx, conn, sessionID, msg); err != nil {
			return
		}
	}
}

// handleMessage returns an error only when the connection is no longer writable.
func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg inboundMessage) error {
	switch msg.Type {
	case TypePing:
		return h.send(conn, outgoingMessage{Type: TypePong, SessionID: sessionID})
	case TypeSnapshot:
		state, err := h.oracle.Snapshot(ctx, sessionID)
		if err != nil {
			return h.sendError(conn, sessionID, err, nil)
		}
		return h.send(conn, outgoingMessage{Type: TypeState, SessionID: sessionID, Data: state})
	case TypeAction:
		var action astro.Action
		if err := json.Unmarshal(msg.Data, &action); err != nil {
			return h.sendError(conn, sessionID, errors.New("invalid action payload"), nil)
		}
		return h.dispatch(ctx, conn, sessionID, action)
	default:
		return h.sendError(conn, sessionID, errors.New("unknown message type: "+msg.Type), nil)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *websocket.Conn, sessionID string, action astro.Action) error {
	var writeErr error
	listener := oracle.Listener{
		Pending: func(state astro.RenderState) {
			if writeErr == nil {
				writeErr = h.send(conn, outgoingMessage{Type: TypeState, SessionID: sessionID, Data: state})
			}
		},
		Delta: func(delta string) error {
			if writeErr == nil {
				writeErr = h.send(conn, outgoingMessage{Type: TypeDelta, SessionID: sessionID, Data: delta})
			}
			return writeErr
		},
	}

	state, err := h.oracle.Dispatch(ctx, sessionID, action, listener)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		var snapshot *astro.RenderState
		if state.SessionID != "" {
			snapshot = &state
		}
		return h.sendError(conn, sessionID, err, snapshot)
	}
	return h.send(conn, outgoingMessage{Type: TypeState, SessionID: sessionID, Data: state})
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID string, err error, state *astro.RenderState) error {
	msg := outgoingMessage{Type: TypeError, SessionID: sessionID, Error: err.Error()}
	if state != nil {
		msg.Data = state
	}
	return h.send(conn, msg)
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.String("session", msg.SessionID), zap.Error(err))
		return err
	}
	return nil
}
