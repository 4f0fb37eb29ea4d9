package meta

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
	"github.com/zhouzirui/ai-astrologer/backend/pkg/utils"
)

// Page 描述前端渲染页面所需的静态信息
type Page struct {
	Title               string          `json:"title"`
	Subtitle            string          `json:"subtitle"`
	Disclaimer          string          `json:"disclaimer"`
	Advisory            string          `json:"advisory,omitempty"`
	ModelAvailable      bool            `json:"modelAvailable"`
	Streaming           bool            `json:"streaming"`
	Defaults            astro.BirthForm `json:"defaults"`
	QuestionPlaceholder string          `json:"questionPlaceholder"`
}

// Handler 页面元信息的HTTP处理器
type Handler struct {
	oracle *oracle.Service
}

// New 创建元信息处理器
func New(svc *oracle.Service) *Handler {
	return &Handler{oracle: svc}
}

// RegisterRoutes 注册元信息路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/meta", h.handleMeta)
}

func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, Page{
		Title:               astro.Title,
		Subtitle:            astro.Subtitle,
		Disclaimer:          astro.Disclaimer,
		Advisory:            h.oracle.Advisory(),
		ModelAvailable:      h.oracle.ModelAvailable(),
		Streaming:           h.oracle.StreamingEnabled(),
		Defaults:            astro.DefaultBirthDetails().Form(),
		QuestionPlaceholder: astro.QuestionPlaceholder,
	})
}
