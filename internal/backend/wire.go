package backend

import "time"

// JSON bodies exchanged with the HTTP server.

type RegisterRequest struct {
	Name string `json:"name"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token,omitempty"`
}

type EvaluateRequest struct {
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	Mode       string `json:"mode"`
	Transcript string `json:"transcript"`
}

type EvaluateResponse struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

type SummaryResponse struct {
	TotalSubmissions int        `json:"total_submissions"`
	AverageScore     *float64   `json:"average_score"`
	MostRecentMode   string     `json:"most_recent_mode,omitempty"`
	MostRecentScore  *float64   `json:"most_recent_score"`
	LastUpdated      *time.Time `json:"last_updated"`
}

type ResponseJSON struct {
	QuestionID  string    `json:"question_id"`
	Mode        string    `json:"mode"`
	Transcript  string    `json:"transcript"`
	Score       float64   `json:"score"`
	Feedback    string    `json:"feedback,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type SessionEventRequest struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	Action       string `json:"action"`
	Answered     int    `json:"answered"`
	Correct      int    `json:"correct"`
	DurationSecs int    `json:"duration_secs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
