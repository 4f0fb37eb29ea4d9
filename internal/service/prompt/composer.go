// Package prompt renders the chat requests sent to the language model.
// Rendering is pure: nothing here calls a model.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
)

var (
	ErrBlankQuestion = errors.New("question is blank")
	ErrNoProfile     = errors.New("no profile generated yet")
)

// Request is an inert two-message chat request plus the values it was
// rendered from.
type Request struct {
	Kind      Kind
	Variables map[string]any
	Messages  []*schema.Message
}

// SystemContent returns the rendered system instruction.
func (r Request) SystemContent() string {
	return r.contentOf(schema.System)
}

// UserContent returns the rendered user message.
func (r Request) UserContent() string {
	return r.contentOf(schema.User)
}

func (r Request) contentOf(role schema.RoleType) string {
	for _, msg := range r.Messages {
		if msg != nil && msg.Role == role {
			return msg.Content
		}
	}
	return ""
}

// Composer turns birth details, profile and question into chat requests.
type Composer struct {
	profile einoprompt.ChatTemplate
	qa      einoprompt.ChatTemplate
}

// NewComposer compiles the catalog templates into eino chat templates.
func NewComposer(catalog *Catalog) (*Composer, error) {
	if catalog == nil {
		catalog = NewCatalog()
	}

	profile, err := chatTemplate(catalog, KindProfile)
	if err != nil {
		return nil, err
	}
	qa, err := chatTemplate(catalog, KindQA)
	if err != nil {
		return nil, err
	}

	return &Composer{profile: profile, qa: qa}, nil
}

func chatTemplate(catalog *Catalog, kind Kind) (einoprompt.ChatTemplate, error) {
	tpl, err := catalog.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(tpl.System),
		schema.UserMessage(tpl.User),
	), nil
}

// ComposeProfileRequest renders the profile-generation request. Absent
// fields are passed through as empty strings.
func (c *Composer) ComposeProfileRequest(ctx context.Context, details astro.BirthDetails) (Request, error) {
	vars := detailVariables(details)
	return c.render(ctx, KindProfile, c.profile, vars)
}

// ComposeQARequest renders the follow-up request. The question is trimmed;
// a blank question or an empty profile is rejected before rendering.
func (c *Composer) ComposeQARequest(ctx context.Context, details astro.BirthDetails, profile, question string) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, ErrBlankQuestion
	}
	if profile == "" {
		return Request{}, ErrNoProfile
	}

	vars := detailVariables(details)
	vars["profile"] = profile
	vars["question"] = question
	return c.render(ctx, KindQA, c.qa, vars)
}

func (c *Composer) render(ctx context.Context, kind Kind, tpl einoprompt.ChatTemplate, vars map[string]any) (Request, error) {
	messages, err := tpl.Format(ctx, vars)
	if err != nil {
		return Request{}, fmt.Errorf("failed to render %s prompt: %w", kind, err)
	}
	return Request{Kind: kind, Variables: vars, Messages: messages}, nil
}

func detailVariables(details astro.BirthDetails) map[string]any {
	return map[string]any{
		"name":  details.Name,
		"dob":   details.DOB(),
		"tob":   details.TOB(),
		"place": details.Place,
	}
}
