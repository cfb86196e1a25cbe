package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/session"
)

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client is the HTTP Backend.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Backend = (*Client)(nil)

// LoadCatalog fetches questions, passages and rubrics concurrently and
// builds the catalog. Any failure rejects the whole catalog.
func (c *Client) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var (
		records  []catalog.Record
		passages map[string]string
		rubrics  map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, "/questions", &records) })
	g.Go(func() error { return c.getJSON(gctx, "/passages", &passages) })
	g.Go(func() error { return c.getJSON(gctx, "/rubrics", &rubrics) })
	if err := g.Wait(); err != nil {
		return nil, fail(OpLoadCatalog, err)
	}

	cat, err := catalog.FromRecords(records, passages, rubrics)
	if err != nil {
		return nil, fail(OpLoadCatalog, err)
	}
	return cat, nil
}

// RegisterUser registers name and remembers the issued token.
func (c *Client) RegisterUser(ctx context.Context, name string) (*Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var resp RegisterResponse
	if err := c.postJSON(ctx, "/register_user", RegisterRequest{Name: name}, &resp); err != nil {
		return nil, fail(OpRegisterUser, err)
	}
	if resp.UserID == "" {
		return nil, fail(OpRegisterUser, errors.New("server returned no user id"))
	}
	if resp.Token != "" {
		c.mu.Lock()
		c.token = resp.Token
		c.mu.Unlock()
	}
	return &Registration{UserID: resp.UserID, Token: resp.Token}, nil
}

func (c *Client) EvaluateAnswer(ctx context.Context, userID, questionID, mode, payload string) (*session.Evaluation, error) {
	req := EvaluateRequest{UserID: userID, QuestionID: questionID, Mode: mode, Transcript: payload}
	var resp EvaluateResponse
	if err := c.postJSON(ctx, "/evaluate", req, &resp); err != nil {
		return nil, fail(OpEvaluate, err)
	}
	ev := &session.Evaluation{Feedback: resp.Feedback}
	if resp.Score != nil {
		ev.Score = *resp.Score
	}
	return ev, nil
}

// Transcribe uploads audio as the multipart field "file".
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "recording.webm")
	if err != nil {
		return "", fail(OpTranscribe, err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fail(OpTranscribe, err)
	}
	if err := mw.Close(); err != nil {
		return "", fail(OpTranscribe, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transcribe", &body)
	if err != nil {
		return "", fail(OpTranscribe, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp TranscribeResponse
	if err := c.do(req, &resp); err != nil {
		return "", fail(OpTranscribe, err)
	}
	return resp.Text, nil
}

func (c *Client) FetchSummary(ctx context.Context, userID string) (*session.Aggregate, error) {
	var resp SummaryResponse
	if err := c.getJSON(ctx, "/summary?user_id="+url.QueryEscape(userID), &resp); err != nil {
		return nil, fail(OpFetchSummary, err)
	}
	return resp.Aggregate(), nil
}

// Aggregate converts the wire summary, treating null fields as zero.
func (s SummaryResponse) Aggregate() *session.Aggregate {
	agg := &session.Aggregate{
		TotalSubmissions: s.TotalSubmissions,
		MostRecentMode:   s.MostRecentMode,
	}
	if s.AverageScore != nil {
		agg.AverageScore = *s.AverageScore
	}
	if s.MostRecentScore != nil {
		agg.MostRecentScore = *s.MostRecentScore
	}
	if s.LastUpdated != nil {
		agg.LastUpdated = *s.LastUpdated
	}
	return agg
}

func (c *Client) Responses(ctx context.Context, userID string) ([]ResponseRecord, error) {
	var rows []ResponseJSON
	if err := c.getJSON(ctx, "/responses?user_id="+url.QueryEscape(userID), &rows); err != nil {
		return nil, fail(OpResponses, err)
	}
	out := make([]ResponseRecord, len(rows))
	for i, r := range rows {
		out[i] = ResponseRecord(r)
	}
	return out, nil
}

func (c *Client) RecordSession(ctx context.Context, ev SessionEvent) error {
	req := SessionEventRequest{
		SessionID:    ev.SessionID,
		UserID:       ev.UserID,
		Action:       ev.Action,
		Answered:     ev.Answered,
		Correct:      ev.Correct,
		DurationSecs: int(ev.Duration.Seconds()),
	}
	if err := c.postJSON(ctx, "/session_events", req, nil); err != nil {
		return fail(OpRecordEvent, err)
	}
	return nil
}

func (c *Client) AudioURL(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return c.base + "/audio/" + url.PathEscape(name)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		var er ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			se.Message = er.Error
		} else {
			se.Message = strings.TrimSpace(string(raw))
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
