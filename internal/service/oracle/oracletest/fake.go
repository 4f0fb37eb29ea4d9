// Package oracletest provides a scripted chat model for tests.
package oracletest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeModel implements model.BaseChatModel with canned replies and records
// every request it receives.
type FakeModel struct {
	mu      sync.Mutex
	replies []string
	chunks  [][]string
	err     error
	calls   [][]*schema.Message
	block   chan struct{}
}

var _ model.BaseChatModel = (*FakeModel)(nil)

// NewFakeModel returns a model that answers with replies in order, repeating
// the last one once exhausted.
func NewFakeModel(replies ...string) *FakeModel {
	return &FakeModel{replies: replies}
}

// WithChunks makes Stream emit the given pieces for the next streamed calls.
func (f *FakeModel) WithChunks(chunks ...[]string) *FakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = chunks
	return f
}

// FailWith makes every call fail with err.
func (f *FakeModel) FailWith(err error) *FakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	return f
}

// BlockUntil holds every call until release is closed.
func (f *FakeModel) BlockUntil(release chan struct{}) *FakeModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = release
	return f
}

// Calls returns the recorded requests.
func (f *FakeModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*schema.Message(nil), f.calls...)
}

// CallCount returns the number of recorded requests.
func (f *FakeModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastUserContent returns the user message of the latest request.
func (f *FakeModel) LastUserContent() string {
	calls := f.Calls()
	if len(calls) == 0 {
		return ""
	}
	for _, msg := range calls[len(calls)-1] {
		if msg.Role == schema.User {
			return msg.Content
		}
	}
	return ""
}

func (f *FakeModel) record(ctx context.Context, input []*schema.Message) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	idx := len(f.calls) - 1
	block := f.block
	err := f.err
	reply := ""
	if len(f.replies) > 0 {
		if idx < len(f.replies) {
			reply = f.replies[idx]
		} else {
			reply = f.replies[len(f.replies)-1]
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

// Generate implements model.BaseChatModel.
func (f *FakeModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	reply, err := f.record(ctx, input)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(reply, nil), nil
}

// Stream implements model.BaseChatModel.
func (f *FakeModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	reply, err := f.record(ctx, input)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	pieces := []string{reply}
	if len(f.chunks) > 0 {
		pieces = f.chunks[0]
		f.chunks = f.chunks[1:]
	}
	f.mu.Unlock()

	msgs := make([]*schema.Message, 0, len(pieces))
	for _, p := range pieces {
		msgs = append(msgs, schema.AssistantMessage(p, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}
