package llm

import "context"

type purposeKey struct{}

// Purposes recorded with each request.
const (
	PurposeGradeWriting  = "grade-writing"
	PurposeGradeSpeaking = "grade-speaking"
)

// WithPurpose labels requests made with ctx.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
