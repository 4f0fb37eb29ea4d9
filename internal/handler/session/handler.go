package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/prompt"
	sessionService "github.com/zhouzirui/ai-astrologer/backend/internal/service/session"
	"github.com/zhouzirui/ai-astrologer/backend/pkg/utils"
)

// Handler 会话与占星请求的HTTP处理器
type Handler struct {
	oracle *oracle.Service
	logger *zap.Logger
}

// New 创建会话处理器
func New(svc *oracle.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{oracle: svc, logger: logger.Named("session")}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Post("/profile", h.handleGenerateProfile)
		r.Post("/question", h.handleAsk)
		r.Post("/actions", h.handleDispatch)
	})
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	state := h.oracle.CreateSession(r.Context())
	utils.RespondJSON(w, http.StatusCreated, state)
}

// handleGetSession 返回当前快照
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.oracle.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}

// handleGenerateProfile 生成占星档案
func (h *Handler) handleGenerateProfile(w http.ResponseWriter, r *http.Request) {
	var form astro.BirthForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.dispatch(w, r, astro.Action{Type: astro.ActionSubmitProfile, Details: &form})
}

// handleAsk 回答追问
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.dispatch(w, r, astro.Action{Type: astro.ActionAskQuestion, Question: payload.Question})
}

// handleDispatch 执行通用动作
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var action astro.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.dispatch(w, r, action)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, action astro.Action) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := h.oracle.Dispatch(r.Context(), sessionID, action, oracle.Listener{})
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Warn("action failed",
				zap.String("session", sessionID),
				zap.String("action", string(action.Type)),
				zap.Error(err))
		}
		if state.SessionID == "" {
			utils.RespondError(w, status, err.Error())
			return
		}
		utils.RespondJSON(w, status, state)
		return
	}

	utils.RespondJSON(w, http.StatusOK, state)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, astro.ErrInvalidDetails), errors.Is(err, prompt.ErrBlankQuestion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, prompt.ErrNoProfile), errors.Is(err, sessionService.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, oracle.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, oracle.ErrModelCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
