package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/grading"
	"github.com/abhisek/cefrquiz/internal/session"
	"github.com/abhisek/cefrquiz/internal/store"
	"github.com/abhisek/cefrquiz/internal/transcribe"
)

// Local serves the Backend from a store in the same process.
type Local struct {
	st          *store.Store
	grader      *grading.Grader
	transcriber transcribe.Transcriber

	mu  sync.Mutex
	svc *grading.Service
}

// NewLocal creates an in-process backend. A nil transcriber makes
// Transcribe fail with ErrNoTranscriber.
func NewLocal(st *store.Store, grader *grading.Grader, tr transcribe.Transcriber) *Local {
	return &Local{st: st, grader: grader, transcriber: tr}
}

var _ Backend = (*Local)(nil)

func (l *Local) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat, err := l.st.Catalog().Load(ctx)
	if err != nil {
		return nil, fail(OpLoadCatalog, err)
	}
	l.mu.Lock()
	l.svc = grading.NewService(l.grader, cat, l.st.Responses())
	l.mu.Unlock()
	return cat, nil
}

func (l *Local) RegisterUser(ctx context.Context, name string) (*Registration, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	u, err := l.st.Users().Register(ctx, name)
	if err != nil {
		return nil, fail(OpRegisterUser, err)
	}
	return &Registration{UserID: u.ID}, nil
}

func (l *Local) EvaluateAnswer(ctx context.Context, userID, questionID, mode, payload string) (*session.Evaluation, error) {
	svc, err := l.service(ctx)
	if err != nil {
		return nil, fail(OpEvaluate, err)
	}
	g, err := svc.Evaluate(ctx, grading.Submission{
		UserID:     userID,
		QuestionID: questionID,
		Mode:       mode,
		Transcript: payload,
	})
	if err != nil {
		return nil, fail(OpEvaluate, err)
	}
	return &session.Evaluation{Score: float64(g.Score), Feedback: g.Feedback}, nil
}

func (l *Local) service(ctx context.Context) (*grading.Service, error) {
	l.mu.Lock()
	svc := l.svc
	l.mu.Unlock()
	if svc != nil {
		return svc, nil
	}
	if _, err := l.LoadCatalog(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.svc, nil
}

func (l *Local) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if l.transcriber == nil {
		return "", fail(OpTranscribe, ErrNoTranscriber)
	}
	text, err := l.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", fail(OpTranscribe, err)
	}
	return text, nil
}

func (l *Local) FetchSummary(ctx context.Context, userID string) (*session.Aggregate, error) {
	s, err := l.st.Responses().Summary(ctx, userID)
	if err != nil {
		return nil, fail(OpFetchSummary, err)
	}
	return &session.Aggregate{
		TotalSubmissions: s.TotalSubmissions,
		AverageScore:     s.AverageScore,
		MostRecentMode:   s.MostRecentMode,
		MostRecentScore:  s.MostRecentScore,
		LastUpdated:      s.LastUpdated,
	}, nil
}

func (l *Local) Responses(ctx context.Context, userID string) ([]ResponseRecord, error) {
	rows, err := l.st.Responses().ForUser(ctx, userID, store.QueryOpts{})
	if err != nil {
		return nil, fail(OpResponses, err)
	}
	out := make([]ResponseRecord, len(rows))
	for i, r := range rows {
		out[i] = ResponseRecord{
			QuestionID:  r.QuestionID,
			Mode:        r.Mode,
			Transcript:  r.Transcript,
			Score:       r.Score,
			Feedback:    r.Feedback,
			SubmittedAt: r.SubmittedAt,
		}
	}
	return out, nil
}

func (l *Local) RecordSession(ctx context.Context, ev SessionEvent) error {
	err := l.st.Events().AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:    ev.SessionID,
		UserID:       ev.UserID,
		Action:       ev.Action,
		Answered:     ev.Answered,
		Correct:      ev.Correct,
		DurationSecs: int(ev.Duration.Seconds()),
	})
	if err != nil {
		return fail(OpRecordEvent, err)
	}
	return nil
}

// AudioURL returns the clip name unchanged; local mode has no media server.
func (l *Local) AudioURL(name string) string { return name }

// IsUnavailable reports whether err is a collaborator failure, as opposed
// to an input error such as ErrEmptyName.
func IsUnavailable(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
