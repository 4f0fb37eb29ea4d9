package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/handler/meta"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/prompt"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/session"
)

func newRouterWithoutModel(t *testing.T) http.Handler {
	t.Helper()
	composer, err := prompt.NewComposer(nil)
	require.NoError(t, err)
	svc, err := oracle.NewService(context.Background(), nil, composer, session.NewStore(),
		oracle.Options{Advisory: "⚠️ Tip: Set your OPENAI_API_KEY in a .env file to get proper answers."}, zap.NewNop())
	require.NoError(t, err)
	return NewRouter(svc, zap.NewNop())
}

func TestMetaCarriesAdvisoryWhenCredentialMissing(t *testing.T) {
	r := newRouterWithoutModel(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/meta", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var page meta.Page
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, "AI Astrologer ✨", page.Title)
	assert.Contains(t, page.Advisory, "OPENAI_API_KEY")
	assert.False(t, page.ModelAvailable)
	assert.Equal(t, "2004-05-25", page.Defaults.DOB)
}

func TestProfileWithoutModelIsServiceUnavailable(t *testing.T) {
	r := newRouterWithoutModel(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session/"+created.SessionID+"/actions", strings.NewReader(`{"type":"submit_profile"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHealthz(t *testing.T) {
	r := newRouterWithoutModel(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}
