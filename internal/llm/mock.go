package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Reply is a canned Mock result.
type Reply struct {
	JSON  string
	Usage Usage
	Err   error
}

// Mock is a deterministic Provider for tests. Replies are served in order;
// an empty queue reports the provider as unavailable.
type Mock struct {
	mu      sync.Mutex
	replies []Reply
	prompts []Prompt
}

// NewMock creates a Mock with queued replies.
func NewMock(replies ...Reply) *Mock {
	return &Mock{replies: replies}
}

func (m *Mock) Name() string { return "mock/mock" }

func (m *Mock) Complete(_ context.Context, p Prompt) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, p)
	if len(m.replies) == 0 {
		return nil, &Error{Kind: KindUnavailable, Provider: "mock"}
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}

	out := &Completion{JSON: json.RawMessage(r.JSON), Model: "mock", Usage: r.Usage}
	if err := checkOutput(p.Schema, out.JSON); err != nil {
		return nil, err
	}
	return out, nil
}

// Queue appends replies.
func (m *Mock) Queue(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Prompts returns the prompts received so far.
func (m *Mock) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Prompt(nil), m.prompts...)
}
