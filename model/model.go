package model

import "time"

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Request struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Token       string    `json:"token"`
	OneTimeUse  bool      `json:"one_time_use"`
	UsedCount   int       `json:"used_count"`
	Points      int       `json:"points"`
	QRContent   string    `json:"qr_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Submissions int `json:"submissions,omitempty"`
}

// Accepting reports whether the request can take a new submission:
// it must be open and, if one-time-use, not yet used.
func (r Request) Accepting() bool {
	if r.Status != StatusOpen {
		return false
	}
	if r.OneTimeUse && r.UsedCount > 0 {
		return false
	}
	return true
}

type Submission struct {
	ID        int       `json:"id"`
	RequestID int       `json:"request_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionDetail is a submission joined with its request, as shown on the
// review page.
type SubmissionDetail struct {
	Submission
	RequestTitle string `json:"request_title"`
	Points       int    `json:"points"`
}

type RewardEntry struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// RewardBalance aggregates earned points and ledger adjustments for one
// person, keyed by name and phone.
type RewardBalance struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Submissions int    `json:"submissions"`
	Earned      int    `json:"earned"`
	Adjustments int    `json:"adjustments"`
	Balance     int    `json:"balance"`
}
