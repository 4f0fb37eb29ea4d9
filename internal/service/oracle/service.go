package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/prompt"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/session"
)

var (
	ErrModelUnavailable = errors.New("language model is not configured")
	ErrModelCall        = errors.New("language model call failed")
	ErrUnknownAction    = errors.New("unknown action")
)

// Options tunes the service.
type Options struct {
	// Advisory is attached to every snapshot, e.g. a missing-credential tip.
	Advisory string
	// Streaming makes Stream* calls use the model's streaming API.
	Streaming bool
}

// Listener observes an in-flight model call. Both hooks are optional.
type Listener struct {
	Pending func(astro.RenderState)
	Delta   func(delta string) error
}

// Service runs the profile and follow-up question pipelines.
type Service struct {
	composer *prompt.Composer
	sessions *session.Store
	chain    compose.Runnable[[]*schema.Message, *schema.Message]
	opts     Options
	logger   *zap.Logger
}

// NewService wires the pipelines. A nil chatModel is allowed: sessions still
// work and model-backed actions fail with ErrModelUnavailable.
func NewService(ctx context.Context, chatModel model.BaseChatModel, composer *prompt.Composer, sessions *session.Store, opts Options, logger *zap.Logger) (*Service, error) {
	if composer == nil || sessions == nil {
		return nil, errors.New("composer and session store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		composer: composer,
		sessions: sessions,
		opts:     opts,
		logger:   logger.Named("oracle"),
	}

	if chatModel == nil {
		return svc, nil
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile oracle chain: %w", err)
	}
	svc.chain = runnable

	return svc, nil
}

// ModelAvailable reports whether a chat model is wired in.
func (s *Service) ModelAvailable() bool {
	return s.chain != nil
}

// StreamingEnabled 指示是否开启流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.opts.Streaming
}

// Advisory returns the configured advisory text.
func (s *Service) Advisory() string {
	return s.opts.Advisory
}

// CreateSession starts a new session and returns its first snapshot.
func (s *Service) CreateSession(ctx context.Context) astro.RenderState {
	sess := s.sessions.Create(ctx)
	s.logger.Debug("session created", zap.String("session", sess.ID))
	return astro.NewRenderState(sess, s.opts.Advisory)
}

// Snapshot returns the current render state of a session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (astro.RenderState, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return astro.RenderState{}, err
	}
	return astro.NewRenderState(sess, s.opts.Advisory), nil
}

// GenerateProfile builds a profile from details and stores it in the session.
func (s *Service) GenerateProfile(ctx context.Context, sessionID string, details astro.BirthDetails) (astro.RenderState, error) {
	return s.StreamProfile(ctx, sessionID, details, Listener{})
}

// StreamProfile is GenerateProfile with progress reported to l.
func (s *Service) StreamProfile(ctx context.Context, sessionID string, details astro.BirthDetails, l Listener) (astro.RenderState, error) {
	state, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return astro.RenderState{}, err
	}
	state.Details = details.Form()

	if err := details.Validate(); err != nil {
		return state.WithNotice(astro.NoticeWarning, err.Error()), err
	}

	req, err := s.composer.ComposeProfileRequest(ctx, details)
	if err != nil {
		return state.Failed(err), err
	}

	profile, err := s.call(ctx, sessionID, req, l)
	if err != nil {
		return s.failedState(ctx, sessionID, state, err), err
	}

	if err := s.sessions.SetDetails(ctx, sessionID, details); err != nil {
		return astro.RenderState{}, err
	}
	if err := s.sessions.SetProfile(ctx, sessionID, profile); err != nil {
		return astro.RenderState{}, err
	}

	final, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return astro.RenderState{}, err
	}
	return final.WithNotice(astro.NoticeSuccess, astro.ProfileGeneratedMsg), nil
}

// Ask answers one follow-up question using the stored profile and details.
// The answer is returned, never stored.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (astro.RenderState, error) {
	return s.StreamAnswer(ctx, sessionID, question, Listener{})
}

// StreamAnswer is Ask with progress reported to l.
func (s *Service) StreamAnswer(ctx context.Context, sessionID, question string, l Listener) (astro.RenderState, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return astro.RenderState{}, err
	}

	state := astro.NewRenderState(sess, s.opts.Advisory)
	state.Question = strings.TrimSpace(question)

	req, err := s.composer.ComposeQARequest(ctx, sess.Details, sess.Profile, question)
	switch {
	case errors.Is(err, prompt.ErrBlankQuestion):
		return state.WithNotice(astro.NoticeWarning, astro.BlankQuestionMsg), err
	case errors.Is(err, prompt.ErrNoProfile):
		return state.WithNotice(astro.NoticeInfo, "Generate your profile before asking a question."), err
	case err != nil:
		return state.Failed(err), err
	}

	answer, err := s.call(ctx, sessionID, req, l)
	if err != nil {
		return s.failedState(ctx, sessionID, state, err), err
	}

	final, err := s.Snapshot(ctx, sessionID)
	if err != nil {
		return astro.RenderState{}, err
	}
	final.Question = state.Question
	final.Answer = answer
	return final, nil
}

// Dispatch routes an explicit user action to its pipeline.
func (s *Service) Dispatch(ctx context.Context, sessionID string, action astro.Action, l Listener) (astro.RenderState, error) {
	switch action.Type {
	case astro.ActionSubmitProfile:
		form := astro.DefaultBirthDetails().Form()
		if action.Details != nil {
			form = *action.Details
		}
		details, err := form.Details()
		if err != nil {
			state, snapErr := s.Snapshot(ctx, sessionID)
			if snapErr != nil {
				return astro.RenderState{}, snapErr
			}
			state.Details = form
			return state.WithNotice(astro.NoticeWarning, err.Error()), err
		}
		return s.StreamProfile(ctx, sessionID, details, l)
	case astro.ActionAskQuestion:
		return s.StreamAnswer(ctx, sessionID, action.Question, l)
	default:
		return astro.RenderState{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// call performs exactly one model invocation while the session is marked pending.
func (s *Service) call(ctx context.Context, sessionID string, req prompt.Request, l Listener) (string, error) {
	if s.chain == nil {
		return "", ErrModelUnavailable
	}

	if err := s.sessions.BeginCall(ctx, sessionID); err != nil {
		return "", err
	}
	defer s.sessions.EndCall(ctx, sessionID)

	if l.Pending != nil {
		if pending, err := s.Snapshot(ctx, sessionID); err == nil {
			l.Pending(pending)
		}
	}

	start := time.Now()
	var (
		msg *schema.Message
		err error
	)
	if l.Delta != nil && s.opts.Streaming {
		msg, err = s.stream(ctx, req.Messages, l.Delta)
	} else {
		msg, err = s.chain.Invoke(ctx, req.Messages)
		if err == nil && l.Delta != nil && msg != nil {
			err = l.Delta(msg.Content)
		}
	}

	if err != nil {
		s.logger.Warn("model call failed",
			zap.String("session", sessionID),
			zap.String("kind", string(req.Kind)),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrModelCall, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty response", ErrModelCall)
	}

	s.logger.Info("model call completed",
		zap.String("session", sessionID),
		zap.String("kind", string(req.Kind)),
		zap.Duration("latency", time.Since(start)),
		zap.Int("length", len(msg.Content)))
	return msg.Content, nil
}

func (s *Service) stream(ctx context.Context, messages []*schema.Message, onDelta func(string) error) (*schema.Message, error) {
	stream, err := s.chain.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			if err := onDelta(chunk.Content); err != nil {
				return nil, err
			}
		}
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.ConcatMessages(chunks)
}

func (s *Service) failedState(ctx context.Context, sessionID string, fallback astro.RenderState, err error) astro.RenderState {
	state := fallback
	if current, snapErr := s.Snapshot(ctx, sessionID); snapErr == nil {
		current.Details = fallback.Details
		current.Question = fallback.Question
		state = current
	}
	return state.Failed(err)
}
