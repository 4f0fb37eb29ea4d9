package astro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRenderStateUsesDefaultsForFreshSession(t *testing.T) {
	state := NewRenderState(Session{ID: "s1"}, "")

	assert.Equal(t, DefaultBirthDetails().Form(), state.Details)
	assert.Equal(t, StatusIdle, state.Status)
	assert.False(t, state.HasProfile)
}

func TestNewRenderStateStatus(t *testing.T) {
	assert.Equal(t, StatusPending, NewRenderState(Session{Pending: true, HasProfile: true}, "").Status)
	assert.Equal(t, StatusReady, NewRenderState(Session{HasProfile: true}, "").Status)
}

func TestRenderStateCopiesAreIndependent(t *testing.T) {
	base := NewRenderState(Session{ID: "s1"}, "tip")
	warned := base.WithNotice(NoticeWarning, BlankQuestionMsg)
	failed := base.Failed(errors.New("boom"))

	assert.Nil(t, base.Notice)
	assert.Empty(t, base.Error)
	assert.Equal(t, NoticeWarning, warned.Notice.Level)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, "tip", failed.Advisory)
}
