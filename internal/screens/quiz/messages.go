package quiz

import (
	"time"

	"github.com/abhisek/cefrquiz/internal/catalog"
	"github.com/abhisek/cefrquiz/internal/session"
)

// advancedMsg carries the result of Engine.Advance. A nil Question with a
// nil Err means the session is over.
type advancedMsg struct {
	Question *catalog.Question
	Err      error
}

// submittedMsg carries the result of Engine.Submit.
type submittedMsg struct {
	Entry *session.ReviewEntry
	Err   error
}

// notificationMsg forwards an engine notification into the update loop.
type notificationMsg session.Notification

// finishedMsg is sent once the session is over and the aggregate summary
// has been fetched (or failed to).
type finishedMsg struct {
	Summary session.Summary
	Err     error
}

// spinnerTickMsg animates the pending-evaluation spinner.
type spinnerTickMsg time.Time
