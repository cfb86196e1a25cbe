package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/grading"
	"github.com/abhisek/cefrquiz/internal/store"
)

const msgNoCatalog = "question catalog is empty; run `cefrquiz seed` first"

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "English CEFR Proficiency API is running."})
}

func (s *Server) currentCatalog(c *gin.Context) *catalog.Catalog {
	cat := s.catalog.Load()
	if cat == nil {
		if err := s.Reload(c.Request.Context()); err != nil {
			log.Printf("Error loading catalog: %v", err)
			abort(c, http.StatusServiceUnavailable, msgNoCatalog)
			return nil
		}
		cat = s.catalog.Load()
	}
	return cat
}

func (s *Server) questions(c *gin.Context) {
	cat := s.currentCatalog(c)
	if cat == nil {
		return
	}
	qs := cat.Questions()
	out := make([]catalog.Record, len(qs))
	for i, q := range qs {
		out[i] = catalog.FromQuestion(q)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) passages(c *gin.Context) {
	if cat := s.currentCatalog(c); cat != nil {
		c.JSON(http.StatusOK, cat.Passages())
	}
}

func (s *Server) rubrics(c *gin.Context) {
	if cat := s.currentCatalog(c); cat != nil {
		c.JSON(http.StatusOK, cat.Rubrics())
	}
}

func (s *Server) registerUser(c *gin.Context) {
	var req backend.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		abort(c, http.StatusBadRequest, backend.ErrEmptyName.Error())
		return
	}

	u, err := s.st.Users().Register(c.Request.Context(), name)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	token, err := s.issueToken(u.ID, time.Now())
	if err != nil {
		log.Printf("Error issuing token: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	s.metrics.registrations.Inc()
	c.JSON(http.StatusOK, backend.RegisterResponse{UserID: u.ID, Token: token})
}

// knownUser reports whether id names a registered learner, writing the
// error response when it does not.
func (s *Server) knownUser(c *gin.Context, id string) bool {
	if id == "" {
		abort(c, http.StatusBadRequest, "user_id is required")
		return false
	}
	if !authorizeUser(c, id) {
		return false
	}
	if _, err := s.st.Users().Get(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			abort(c, http.StatusNotFound, "unknown user")
		} else {
			log.Printf("Error looking up user %s: %v", id, err)
			abort(c, http.StatusInternalServerError, "Failed to look up user")
		}
		return false
	}
	return true
}

func (s *Server) evaluate(c *gin.Context) {
	var req backend.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.QuestionID == "" {
		abort(c, http.StatusBadRequest, "question_id is required")
		return
	}
	if !s.knownUser(c, req.UserID) {
		return
	}
	if s.currentCatalog(c) == nil {
		return
	}

	start := time.Now()
	svc := grading.NewService(s.grader, questionLookup{s}, s.st.Responses())
	grade, err := svc.Evaluate(c.Request.Context(), grading.Submission{
		UserID:     req.UserID,
		QuestionID: req.QuestionID,
		Mode:       req.Mode,
		Transcript: req.Transcript,
	})
	switch {
	case errors.Is(err, grading.ErrUnknownQuestion):
		abort(c, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, grading.ErrUnknownMode):
		abort(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("Error evaluating answer: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to evaluate answer")
		return
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if q, ok := (questionLookup{s}).Question(req.QuestionID); ok && mode == "" {
		mode = q.AnswerType.Mode()
	}
	s.metrics.evaluations.WithLabelValues(mode, string(grade.Source)).Inc()
	s.metrics.evalDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	score := float64(grade.Score)
	c.JSON(http.StatusOK, backend.EvaluateResponse{Score: &score, Feedback: grade.Feedback})
}

func (s *Server) transcribe(c *gin.Context) {
	if s.transcriber == nil {
		abort(c, http.StatusServiceUnavailable, backend.ErrNoTranscriber.Error())
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	if fh.Size > s.cfg.MaxUpload && s.cfg.MaxUpload > 0 {
		abort(c, http.StatusRequestEntityTooLarge, "recording is too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(audio) == 0 {
		abort(c, http.StatusBadRequest, "recording is empty")
		return
	}

	text, err := s.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		s.metrics.transcripts.WithLabelValues("error").Inc()
		log.Printf("Error transcribing audio: %v", err)
		abort(c, http.StatusBadGateway, "Transcription failed")
		return
	}
	s.metrics.transcripts.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, backend.TranscribeResponse{Text: text})
}

func (s *Server) summary(c *gin.Context) {
	userID := c.Query("user_id")
	if !s.knownUser(c, userID) {
		return
	}
	sum, err := s.st.Responses().Summary(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error fetching summary: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}

	resp := backend.SummaryResponse{TotalSubmissions: sum.TotalSubmissions}
	if sum.TotalSubmissions > 0 {
		avg, recent, updated := sum.AverageScore, sum.MostRecentScore, sum.LastUpdated
		resp.AverageScore = &avg
		resp.MostRecentScore = &recent
		resp.MostRecentMode = sum.MostRecentMode
		resp.LastUpdated = &updated
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) responses(c *gin.Context) {
	userID := c.Query("user_id")
	if !s.knownUser(c, userID) {
		return
	}
	opts := store.QueryOpts{}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	rows, err := s.st.Responses().ForUser(c.Request.Context(), userID, opts)
	if err != nil {
		log.Printf("Error fetching responses: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to fetch responses")
		return
	}
	out := make([]backend.ResponseJSON, len(rows))
	for i, r := range rows {
		out[i] = backend.ResponseJSON{
			QuestionID:  r.QuestionID,
			Mode:        r.Mode,
			Transcript:  r.Transcript,
			Score:       r.Score,
			Feedback:    r.Feedback,
			SubmittedAt: r.SubmittedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) sessionEvent(c *gin.Context) {
	var req backend.SessionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Action {
	case backend.ActionStart, backend.ActionRestart, backend.ActionEnd:
	default:
		abort(c, http.StatusBadRequest, "action must be start, restart or end")
		return
	}
	if !s.knownUser(c, req.UserID) {
		return
	}

	err := s.st.Events().AppendSessionEvent(c.Request.Context(), store.SessionEventData{
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		Action:       req.Action,
		Answered:     req.Answered,
		Correct:      req.Correct,
		DurationSecs: req.DurationSecs,
	})
	if err != nil {
		log.Printf("Error recording session event: %v", err)
		abort(c, http.StatusInternalServerError, "Failed to record session event")
		return
	}
	s.metrics.sessions.WithLabelValues(req.Action).Inc()
	c.Status(http.StatusNoContent)
}
