package session

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/cefr"
)

// Response is a learner's answer to the current question. Only the field
// matching the question's answer type is read.
type Response struct {
	Choice string // multiple-choice: selected choice text
	Text   string // open-ended: written answer
	Audio  []byte // spoken-response: recorded audio
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used to draw questions.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithLogger sets the logger that receives diagnostics.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEvaluator sets the service that grades open-ended and spoken answers.
func WithEvaluator(ev Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

// WithTranscriber sets the speech-to-text service for spoken answers.
func WithTranscriber(t Transcriber) Option {
	return func(e *Engine) { e.transcriber = t }
}

// WithClock overrides time.Now for review timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns all state of one quiz session. It is safe for concurrent
// use; renderers read Snapshot and mutate only through its methods.
type Engine struct {
	mu sync.Mutex

	cfg         Config
	cat         *catalog.Catalog
	rnd         *rand.Rand
	logger      Logger
	evaluator   Evaluator
	transcriber Transcriber
	now         func() time.Time

	id              string
	phase           Phase
	band            cefr.Band
	history         []string
	consumed        map[string]bool
	served          int
	answered        int
	correct         int
	current         *catalog.Question
	currentAnswered bool
	review          []ReviewEntry
	evaluations     []EvaluationResult

	// pending is set while a transcription or evaluation is outstanding.
	pending    bool
	done       chan struct{}
	generation int

	subs    []subscriber
	nextSub int
	outbox  []Notification
}

// New creates an engine over cat. A nil catalog leaves the engine idle
// until Restart supplies one.
func New(cat *catalog.Catalog, cfg Config, opts ...Option) *Engine {
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = DefaultMaxQuestions
	}
	if cfg.EscalateEvery < 0 {
		cfg.EscalateEvery = 0
	}
	if !cfg.StartBand.Valid() {
		cfg.StartBand = cefr.A1
	}

	e := &Engine{
		cfg:    cfg,
		cat:    cat,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.resetLocked()
	return e
}

func (e *Engine) resetLocked() {
	e.id = uuid.NewString()
	e.phase = PhaseIdle
	e.band = e.cfg.StartBand
	e.history = nil
	e.consumed = make(map[string]bool)
	e.served = 0
	e.answered = 0
	e.correct = 0
	e.current = nil
	e.currentAnswered = false
	e.review = nil
	e.evaluations = nil
	e.pending = false
	e.done = nil
	e.generation++
}

// ID returns the session identifier. It changes on Restart.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Config returns the session configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Catalog returns the catalog the session draws from.
func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cat
}

// Advance draws the next question. It returns (nil, nil) when the session
// ends, either because the answer limit was reached or every band is
// exhausted.
func (e *Engine) Advance() (*catalog.Question, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.cat == nil {
		return nil, ErrNotStarted
	}
	if e.phase == PhaseFinished {
		return nil, ErrFinished
	}
	if e.pending {
		return nil, ErrEvaluationPending
	}
	if e.current != nil && !e.currentAnswered {
		return nil, ErrAnswerRequired
	}
	if e.answered >= e.cfg.MaxQuestions {
		e.finishLocked()
		return nil, nil
	}

	if n := e.cfg.EscalateEvery; n > 0 && e.served > 0 && e.served%n == 0 {
		if next, ok := e.band.Next(); ok {
			e.band = next
		}
	}

	for {
		if pool := e.poolLocked(); len(pool) > 0 {
			q := pool[e.rnd.IntN(len(pool))]
			e.history = append(e.history, q.ID)
			e.consumed[q.ID] = true
			e.served++
			e.current = q
			e.currentAnswered = false
			e.phase = PhaseInProgress

			out := *q
			e.notify(Notification{Kind: QuestionPresented, Question: &out})
			return &out, nil
		}
		next, ok := e.band.Next()
		if !ok {
			e.finishLocked()
			return nil, nil
		}
		e.band = next
	}
}

// poolLocked returns the unconsumed questions at the current band, or every
// question at the band when all of them have been served.
func (e *Engine) poolLocked() []*catalog.Question {
	all := e.cat.AtBand(e.band)
	unique := make([]*catalog.Question, 0, len(all))
	for _, q := range all {
		if !e.consumed[q.ID] {
			unique = append(unique, q)
		}
	}
	if len(unique) > 0 {
		return unique
	}
	return all
}

// Submit checks r against the current question. Rejected responses return
// a *RejectionError and leave the session unchanged. Accepted open-ended
// and spoken answers are sent to the Evaluator in the background; until it
// resolves, Advance and Submit return ErrEvaluationPending.
func (e *Engine) Submit(ctx context.Context, r Response) (*ReviewEntry, error) {
	e.mu.Lock()

	if err := e.checkSubmittableLocked(); err != nil {
		e.unlock()
		return nil, err
	}

	q := e.current
	switch q.AnswerType {
	case catalog.OpenEnded:
		defer e.unlock()
		return e.submitWritingLocked(ctx, q, r)
	case catalog.SpokenResponse:
		return e.submitSpoken(ctx, q, r)
	default:
		defer e.unlock()
		return e.submitChoiceLocked(q, r)
	}
}

func (e *Engine) checkSubmittableLocked() error {
	switch {
	case e.cat == nil:
		return ErrNotStarted
	case e.phase == PhaseFinished:
		return ErrFinished
	case e.pending:
		return ErrEvaluationPending
	case e.current == nil || e.currentAnswered:
		return e.rejectLocked(nil, &RejectionError{Reason: ReasonNoCurrentQuestion})
	}
	return nil
}

func (e *Engine) submitChoiceLocked(q *catalog.Question, r Response) (*ReviewEntry, error) {
	choice := strings.TrimSpace(r.Choice)
	if choice == "" {
		return nil, e.rejectLocked(q, &RejectionError{Reason: ReasonNoSelection})
	}
	if !q.OffersChoice(choice) {
		return nil, e.rejectLocked(q, &RejectionError{Reason: ReasonUnknownChoice, Choice: choice})
	}

	outcome := Incorrect
	if !q.HasCorrectAnswer() {
		e.diagnosticLocked(q, fmt.Sprintf("question %s has no correct answer; scoring as incorrect", q.ID))
	} else if catalog.AnswersMatch(choice, q.CorrectAnswer) {
		outcome = Correct
	}
	return e.acceptLocked(q, choice, q.CorrectAnswer, outcome, ""), nil
}

func (e *Engine) submitWritingLocked(ctx context.Context, q *catalog.Question, r Response) (*ReviewEntry, error) {
	words, required := catalog.WordCount(r.Text), q.RequiredWords()
	if words < required {
		return nil, e.rejectLocked(q, &RejectionError{
			Reason:   ReasonUnderWordCount,
			Words:    words,
			Required: required,
		})
	}

	text := strings.TrimSpace(r.Text)
	entry := e.acceptLocked(q, PendingEvaluation, "", Unknown, text)
	e.evaluateLocked(ctx, *entry, q.AnswerType.Mode(), text)
	return entry, nil
}

// submitSpoken is entered with e.mu held and releases it. The lock is
// dropped while transcribing; pending blocks other submissions meanwhile.
func (e *Engine) submitSpoken(ctx context.Context, q *catalog.Question, r Response) (*ReviewEntry, error) {
	if len(r.Audio) == 0 {
		err := e.rejectLocked(q, &RejectionError{Reason: ReasonEmptyRecording})
		e.unlock()
		return nil, err
	}
	if e.transcriber == nil {
		e.unlock()
		return nil, ErrNoTranscriber
	}

	tr, gen := e.transcriber, e.generation
	transcribed := make(chan struct{})
	e.pending = true
	e.done = transcribed
	e.unlock()

	text, err := tr.Transcribe(ctx, r.Audio)

	defer close(transcribed)
	e.mu.Lock()
	defer e.unlock()
	if gen != e.generation {
		return nil, fmt.Errorf("session restarted during transcription: %w", ErrFinished)
	}
	e.pending = false
	if e.phase == PhaseFinished {
		return nil, ErrFinished
	}
	if err != nil {
		e.diagnosticLocked(q, fmt.Sprintf("transcribe answer to question %s: %v", q.ID, err))
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, e.rejectLocked(q, &RejectionError{Reason: ReasonEmptyTranscript})
	}

	entry := e.acceptLocked(q, PendingEvaluation, "", Unknown, text)
	e.evaluateLocked(ctx, *entry, q.AnswerType.Mode(), text)
	return entry, nil
}

// acceptLocked records an answer. Correct answers and answers awaiting
// evaluation both earn a point on the running count.
func (e *Engine) acceptLocked(q *catalog.Question, answer, correctAnswer string, outcome Correctness, payload string) *ReviewEntry {
	entry := ReviewEntry{
		Seq:           len(e.review) + 1,
		QuestionID:    q.ID,
		QuestionText:  q.Text,
		Band:          q.Band,
		AnswerType:    q.AnswerType,
		Answer:        answer,
		CorrectAnswer: correctAnswer,
		Correct:       outcome,
		Payload:       payload,
		AnsweredAt:    e.now(),
	}
	e.review = append(e.review, entry)
	e.answered++
	if outcome != Incorrect {
		e.correct++
	}
	e.currentAnswered = true

	out := entry
	e.notify(Notification{Kind: AnswerAccepted, Question: q, Entry: &out})
	return &entry
}

func (e *Engine) rejectLocked(q *catalog.Question, err *RejectionError) error {
	e.notify(Notification{Kind: AnswerRejected, Question: q, Reason: err.Reason, Message: err.Error()})
	return err
}

func (e *Engine) diagnosticLocked(q *catalog.Question, msg string) {
	e.logger.Printf("session %s: %s", e.id, msg)
	e.notify(Notification{Kind: Diagnostic, Question: q, Message: msg})
}

// evaluateLocked dispatches entry to the Evaluator. The caller's context
// only carries values here; evaluation outlives the submitting call.
func (e *Engine) evaluateLocked(ctx context.Context, entry ReviewEntry, mode, payload string) {
	if e.evaluator == nil {
		return
	}

	ev, user, gen := e.evaluator, e.cfg.UserID, e.generation
	done := make(chan struct{})
	e.pending = true
	e.done = done
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		res, err := ev.EvaluateAnswer(ctx, user, entry.QuestionID, mode, payload)

		e.mu.Lock()
		defer e.unlock()
		if gen != e.generation {
			return
		}
		e.pending = false

		result := EvaluationResult{Seq: entry.Seq, QuestionID: entry.QuestionID, Mode: mode}
		kind := EvaluationCompleted
		if err != nil {
			result.Err = err
			kind = EvaluationFailed
			e.logger.Printf("session %s: evaluate question %s: %v", e.id, entry.QuestionID, err)
		} else if res != nil {
			result.Score = res.Score
			result.Feedback = res.Feedback
		}
		e.evaluations = append(e.evaluations, result)
		e.notify(Notification{Kind: kind, Entry: &entry, Evaluation: &result})
	}()
}

// Wait blocks until the outstanding transcription and evaluation resolve
// or ctx is done. A transcription that hands off to an evaluation is
// waited through.
func (e *Engine) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		done := e.done
		e.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		e.mu.Lock()
		settled := e.done == done
		e.mu.Unlock()
		if settled {
			return nil
		}
	}
}

// Terminate ends the session. Counters are frozen; an evaluation already
// in flight still records its result.
func (e *Engine) Terminate() {
	e.mu.Lock()
	defer e.unlock()
	e.finishLocked()
}

func (e *Engine) finishLocked() {
	if e.phase == PhaseFinished {
		return
	}
	e.phase = PhaseFinished
	e.current = nil
	e.currentAnswered = false
	e.notify(Notification{Kind: SessionFinished})
}

// Restart discards all session state and starts over with cat. A nil cat
// keeps the current catalog. Results of evaluations still in flight are
// dropped.
func (e *Engine) Restart(cat *catalog.Catalog) {
	e.mu.Lock()
	defer e.unlock()
	if cat != nil {
		e.cat = cat
	}
	e.resetLocked()
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:           e.phase,
		Band:            e.band,
		CurrentAnswered: e.currentAnswered,
		Served:          e.served,
		Answered:        e.answered,
		Correct:         e.correct,
		MaxQuestions:    e.cfg.MaxQuestions,
		ConsumedCount:   len(e.history),
		Pending:         e.pending,
	}
	if e.current != nil {
		q := *e.current
		s.Current = &q
		if e.cat != nil {
			s.Passage, _ = e.cat.Passage(q.ReadingID)
			s.Rubric, _ = e.cat.Rubric(q.RubricID)
		}
	}
	return s
}

// Review returns the review log in answer order.
func (e *Engine) Review() []ReviewEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ReviewEntry(nil), e.review...)
}

// Evaluations returns the evaluation results received so far.
func (e *Engine) Evaluations() []EvaluationResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EvaluationResult(nil), e.evaluations...)
}

// ConsumedCount returns the number of draws made, repeats included.
func (e *Engine) ConsumedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// ConsumedIDs returns the drawn question ids in draw order.
func (e *Engine) ConsumedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.history...)
}

// Subscribe registers fn for notifications and returns a function that
// removes it.
func (e *Engine) Subscribe(fn Handler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) notify(n Notification) {
	n.Snapshot = e.snapshotLocked()
	e.outbox = append(e.outbox, n)
}

// unlock releases e.mu and then delivers queued notifications, so handlers
// may call back into the engine.
func (e *Engine) unlock() {
	out := e.outbox
	e.outbox = nil
	subs := append([]subscriber(nil), e.subs...)
	e.mu.Unlock()

	for _, n := range out {
		for _, s := range subs {
			s.fn(n)
		}
	}
}
