package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
	"github.com/zhouzirui/ai-astrologer/backend/pkg/utils"
)

// Handler manages streaming model output via Server-Sent Events
type Handler struct {
	oracle *oracle.Service
	logger *zap.Logger
}

// New creates a new stream handler
func New(svc *oracle.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{oracle: svc, logger: logger.Named("stream")}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}/profile", h.handleStreamProfile)
	r.Get("/stream/{sessionID}/answer", h.handleStreamAnswer)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string             `json:"event"`
	Content   string             `json:"content,omitempty"`
	SessionID string             `json:"sessionId,omitempty"`
	State     *astro.RenderState `json:"state,omitempty"`
	Finished  bool               `json:"finished,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func (h *Handler) handleStreamProfile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	form := astro.BirthForm{
		Name:  query.Get("name"),
		DOB:   query.Get("dob"),
		TOB:   query.Get("tob"),
		Place: query.Get("place"),
	}
	h.serve(w, r, astro.Action{Type: astro.ActionSubmitProfile, Details: &form})
}

func (h *Handler) handleStreamAnswer(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, astro.Action{Type: astro.ActionAskQuestion, Question: r.URL.Query().Get("question")})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, action astro.Action) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.HandleStreamRequest(r.Context(), w, sessionID, action); err != nil {
		h.logger.Debug("stream ended with error",
			zap.String("session", sessionID),
			zap.String("action", string(action.Type)),
			zap.Error(err))
	}
}

// HandleStreamRequest runs one action and streams its progress. Errors are
// reported in-band as an "error" event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, action astro.Action) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	if _, err := h.oracle.Snapshot(ctx, sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return err
	}

	utils.SetupSSEHeaders(w)

	listener := oracle.Listener{
		Pending: func(state astro.RenderState) {
			h.sendSSE(w, flusher, StreamResponse{Event: "start", SessionID: sessionID, State: &state})
		},
		Delta: func(delta string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.sendSSE(w, flusher, StreamResponse{Event: "delta", SessionID: sessionID, Content: delta})
			return nil
		},
	}

	state, err := h.oracle.Dispatch(ctx, sessionID, action, listener)
	if err != nil {
		resp := StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()}
		if state.SessionID != "" {
			resp.State = &state
		}
		h.sendSSE(w, flusher, resp)
		return err
	}

	content := state.Answer
	if action.Type == astro.ActionSubmitProfile {
		content = state.Profile
	}
	h.sendSSE(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Content: content, State: &state})
	h.sendSSE(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	h.logger.Info("stream completed", zap.String("session", sessionID), zap.String("action", string(action.Type)))
	return nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}
