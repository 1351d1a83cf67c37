package delivery

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome of one recipient's delivery
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip reasons
const (
	ReasonOptedOut         = "opted_out"
	ReasonNoEmail          = "no_email"
	ReasonUnknownRecipient = "unknown_recipient"
	ReasonInterrupted      = "interrupted"
)

// RecipientResult is the outcome of delivering one notification to one user
type RecipientResult struct {
	NotificationID primitive.ObjectID
	RecipientID    primitive.ObjectID
	Email          string
	Template       string
	Language       string
	Outcome        Outcome
	Reason         string
	Err            error
	Duration       time.Duration

	// Interrupted is set when the batch context ended before the send completed.
	// The record stays unmarked so the redelivery sweep picks it up again.
	Interrupted bool
}

// BatchReport aggregates the results of one Deliver call
type BatchReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int // records considered
	Marked     int // records whose emailSentAt was set by this run
	Results    []RecipientResult
}

// Count returns how many results have outcome o
func (r *BatchReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Interrupted reports whether any recipient of record id was cut off by cancellation
func (r *BatchReport) Interrupted(id primitive.ObjectID) bool {
	for _, res := range r.Results {
		if res.NotificationID == id && res.Interrupted {
			return true
		}
	}
	return false
}

// ForNotification returns the results that belong to one record
func (r *BatchReport) ForNotification(id primitive.ObjectID) []RecipientResult {
	var out []RecipientResult
	for _, res := range r.Results {
		if res.NotificationID == id {
			out = append(out, res)
		}
	}
	return out
}

func (r *BatchReport) countInterrupted() int {
	n := 0
	for _, res := range r.Results {
		if res.Interrupted {
			n++
		}
	}
	return n
}
