package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhisek/cefrquiz/internal/store"
)

// EventSink receives one record per provider call.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

type recording struct {
	inner Provider
	sink  EventSink
}

// WithRecording wraps p so every call is written to sink. Sink failures
// are reported on stderr and never fail the call.
func WithRecording(p Provider, sink EventSink) Provider {
	if sink == nil {
		return p
	}
	return &recording{inner: p, sink: sink}
}

func (r *recording) Name() string { return r.inner.Name() }

func (r *recording) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	start := time.Now()
	out, err := r.inner.Complete(ctx, p)

	provider, model, _ := strings.Cut(r.inner.Name(), "/")
	ev := store.LLMRequestEventData{
		Provider:    provider,
		Model:       model,
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describePrompt(p),
	}
	if out != nil {
		ev.Model = out.Model
		ev.InputTokens = out.Usage.InputTokens
		ev.OutputTokens = out.Usage.OutputTokens
		ev.ResponseBody = string(out.JSON)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	if serr := r.sink.AppendLLMRequest(context.WithoutCancel(ctx), ev); serr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record LLM request: %v\n", serr)
	}
	return out, err
}

func describePrompt(p Prompt) string {
	var b strings.Builder
	if p.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", p.System)
	}
	fmt.Fprintf(&b, "[user]\n%s\n", p.User)
	if p.Schema != nil {
		fmt.Fprintf(&b, "\n[schema: %s]\n", p.Schema.Name)
	}
	return b.String()
}
