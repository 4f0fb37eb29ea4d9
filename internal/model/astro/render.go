package astro

// Status describes where a session is in its request/response cycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// NoticeLevel mirrors the banner styles the form surface can show.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a one-shot user-visible message attached to a render state.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// User-facing texts.
const (
	Title               = "AI Astrologer ✨"
	Subtitle            = "LLM-powered astrology profile + Q&A"
	Disclaimer          = "This demo uses a Large Language Model to produce astrology-style guidance. It may be fictional or speculative and is not professional advice."
	ProfileGeneratedMsg = "Profile generated!"
	BlankQuestionMsg    = "Please type a question first."
	QuestionPlaceholder = "Example: How does my career look this year?"
)

// RenderState is an immutable snapshot of what the form surface should show
// after an action.
type RenderState struct {
	SessionID  string    `json:"sessionId"`
	Details    BirthForm `json:"details"`
	Profile    string    `json:"profile,omitempty"`
	HasProfile bool      `json:"hasProfile"`
	Question   string    `json:"question,omitempty"`
	Answer     string    `json:"answer,omitempty"`
	Status     Status    `json:"status"`
	Notice     *Notice   `json:"notice,omitempty"`
	Advisory   string    `json:"advisory,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewRenderState derives the baseline snapshot of a session. Sessions that
// never submitted details show the defaults.
func NewRenderState(sess Session, advisory string) RenderState {
	details := sess.Details
	if details.Name == "" && details.DateOfBirth.IsZero() {
		details = DefaultBirthDetails()
	}

	state := RenderState{
		SessionID:  sess.ID,
		Details:    details.Form(),
		Profile:    sess.Profile,
		HasProfile: sess.HasProfile,
		Status:     StatusIdle,
		Advisory:   advisory,
	}
	switch {
	case sess.Pending:
		state.Status = StatusPending
	case sess.HasProfile:
		state.Status = StatusReady
	}
	return state
}

// WithNotice returns a copy carrying the given notice.
func (s RenderState) WithNotice(level NoticeLevel, text string) RenderState {
	s.Notice = &Notice{Level: level, Text: text}
	return s
}

// Failed returns a copy marked as failed with err's message.
func (s RenderState) Failed(err error) RenderState {
	s.Status = StatusFailed
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// ActionType names the two things a user can do.
type ActionType string

const (
	ActionSubmitProfile ActionType = "submit_profile"
	ActionAskQuestion   ActionType = "ask_question"
)

// Action is an explicit user event dispatched against a session.
type Action struct {
	Type     ActionType `json:"type"`
	Details  *BirthForm `json:"details,omitempty"`
	Question string     `json:"question,omitempty"`
}
