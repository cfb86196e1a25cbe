package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/cefrquiz/internal/catalog"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures history queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // sequence > After
	From  time.Time // submitted at or after From
	To    time.Time // submitted at or before To
}

// CatalogRepo stores the question catalog.
type CatalogRepo interface {
	// Replace swaps the stored catalog for c in one transaction.
	Replace(ctx context.Context, c *catalog.Catalog) error

	// Load reads the full catalog. It returns catalog.ErrEmpty when no
	// questions have been seeded.
	Load(ctx context.Context) (*catalog.Catalog, error)

	// Questions returns every question in catalog order.
	Questions(ctx context.Context) ([]catalog.Question, error)

	// Passages returns reading passages by id.
	Passages(ctx context.Context) (map[string]string, error)

	// Rubrics returns rubric texts by id.
	Rubrics(ctx context.Context) (map[string]string, error)
}

// User is a registered learner.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// UserRepo manages learners.
type UserRepo interface {
	Register(ctx context.Context, name string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
}

// Response is one evaluated open-ended or spoken answer.
type Response struct {
	ID          int64
	Sequence    int64
	UserID      string
	QuestionID  string
	Mode        string
	Transcript  string
	Score       float64
	Feedback    string
	SubmittedAt time.Time
}

// UserSummary aggregates a learner's evaluated responses.
type UserSummary struct {
	TotalSubmissions int
	AverageScore     float64
	MostRecentMode   string
	MostRecentScore  float64
	LastUpdated      time.Time
}

// ResponseRepo records evaluated responses.
type ResponseRepo interface {
	Append(ctx context.Context, r *Response) error
	ForUser(ctx context.Context, userID string, opts QueryOpts) ([]Response, error)
	Summary(ctx context.Context, userID string) (*UserSummary, error)
}

// SessionEventData captures a session lifecycle event.
type SessionEventData struct {
	SessionID    string
	UserID       string
	Action       string // "start", "end" or "restart"
	Answered     int
	Correct      int
	DurationSecs int
}

// SessionEvent is a stored SessionEventData.
type SessionEvent struct {
	SessionEventData
	Sequence  int64
	CreatedAt time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	LLMRequestEventData
	Sequence  int64
	CreatedAt time.Time
}

// EventRepo provides append access to operational events.
type EventRepo interface {
	// AppendSessionEvent records a session start or end.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// SessionEvents returns session events for a user, oldest first.
	SessionEvents(ctx context.Context, userID string, opts QueryOpts) ([]SessionEvent, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// LLMRequests returns LLM request events, newest first.
	LLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
}
