package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func testServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *Anthropic {
	t.Helper()
	srv := testServer(t, h)
	p, err := NewAnthropic(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"},
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	return p
}

func TestAnthropic_Structured(t *testing.T) {
	p := newTestAnthropic(t, jsonHandler(http.StatusOK, anthropicMessage(`{"score":4,"feedback":"Clear."}`, "end_turn")))
	out, err := p.Complete(context.Background(), Prompt{System: "grader", User: "essay", Schema: gradeSchema})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Usage.InputTokens != 50 || out.Usage.OutputTokens != 30 {
		t.Errorf("usage = %+v", out.Usage)
	}
	if string(out.JSON) != `{"score":4,"feedback":"Clear."}` {
		t.Errorf("JSON = %s", out.JSON)
	}
	if p.Name() != "anthropic/claude-haiku-4-5-20251001" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestAnthropic_Errors(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
		want Kind
	}{
		{"rate limit", jsonHandler(http.StatusTooManyRequests, map[string]any{
			"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		}), KindRateLimited},
		{"server error", jsonHandler(http.StatusInternalServerError, map[string]any{
			"type": "error", "error": map[string]any{"type": "api_error", "message": "oops"},
		}), KindUnavailable},
		{"unauthorized", jsonHandler(http.StatusUnauthorized, map[string]any{
			"type": "error", "error": map[string]any{"type": "authentication_error", "message": "bad key"},
		}), KindAuth},
		{"truncated", jsonHandler(http.StatusOK, anthropicMessage(`{"score":`, "max_tokens")), KindTruncated},
		{"schema mismatch", jsonHandler(http.StatusOK, anthropicMessage(`{"grade":"B2"}`, "end_turn")), KindInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestAnthropic(t, tt.h)
			_, err := p.Complete(context.Background(), Prompt{User: "x", Schema: gradeSchema})
			if !IsKind(err, tt.want) {
				t.Errorf("error = %v, want kind %s", err, tt.want)
			}
		})
	}
}

func newTestOpenAI(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := testServer(t, h)
	p, err := NewOpenAI(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	return p
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAI_Structured(t *testing.T) {
	var sent map[string]any
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		jsonHandler(http.StatusOK, chatCompletion(`{"score":3,"feedback":"Good range."}`, "stop"))(w, r)
	})

	out, err := p.Complete(context.Background(), Prompt{System: "grader", User: "essay", Schema: gradeSchema})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Usage.Total() != 65 {
		t.Errorf("total tokens = %d, want 65", out.Usage.Total())
	}
	format, _ := sent["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", sent["response_format"])
	}
	if msgs, _ := sent["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v, want system and user", sent["messages"])
	}
}

func TestOpenAI_FreeText(t *testing.T) {
	p := newTestOpenAI(t, jsonHandler(http.StatusOK, chatCompletion("Nice work.", "stop")))
	out, err := p.Complete(context.Background(), Prompt{User: "hello"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	var s string
	if err := out.Decode(&s); err != nil || s != "Nice work." {
		t.Errorf("Decode = %q, %v", s, err)
	}
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
		want Kind
	}{
		{"rate limit", jsonHandler(http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit", "code": "rate_limit"},
		}), KindRateLimited},
		{"server error", jsonHandler(http.StatusBadGateway, map[string]any{
			"error": map[string]any{"message": "bad gateway", "type": "server_error"},
		}), KindUnavailable},
		{"length", jsonHandler(http.StatusOK, chatCompletion(`{"score`, "length")), KindTruncated},
		{"no choices", jsonHandler(http.StatusOK, map[string]any{"id": "x", "choices": []any{}}), KindInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestOpenAI(t, tt.h)
			_, err := p.Complete(context.Background(), Prompt{User: "x", Schema: gradeSchema})
			if !IsKind(err, tt.want) {
				t.Errorf("error = %v, want kind %s", err, tt.want)
			}
		})
	}
}

func TestGemini_Structured(t *testing.T) {
	srv := testServer(t, jsonHandler(http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": `{"score":5,"feedback":"Excellent."}`}}},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 12, "candidatesTokenCount": 8, "totalTokenCount": 20},
	}))

	p, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", Model: "gemini-flash"},
		&genai.HTTPOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	out, err := p.Complete(context.Background(), Prompt{User: "essay", Schema: gradeSchema})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Usage.Total() != 20 {
		t.Errorf("total tokens = %d, want 20", out.Usage.Total())
	}
	if p.Name() != "gemini/gemini-2.0-flash" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":  map[string]any{"type": "integer"},
			"level":  map[string]any{"type": "string", "enum": []any{"A1", "B2"}},
			"issues": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"score"},
	})

	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %s, want OBJECT", s.Type)
	}
	if s.Properties["score"].Type != genai.TypeInteger {
		t.Errorf("score type = %s", s.Properties["score"].Type)
	}
	if len(s.Properties["level"].Enum) != 2 {
		t.Errorf("level enum = %v", s.Properties["level"].Enum)
	}
	if s.Properties["issues"].Items.Type != genai.TypeString {
		t.Errorf("issues items = %s", s.Properties["issues"].Items.Type)
	}
	if len(s.Required) != 1 {
		t.Errorf("required = %v", s.Required)
	}
}
