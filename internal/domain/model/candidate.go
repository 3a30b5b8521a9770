package model

import (
	"time"
)

type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Party     string    `json:"party"`
	Slug      string    `json:"slug"`
	Age       int       `json:"age"`
	VoteCount int       `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Votes     []Vote    `json:"votes,omitempty"` // Loaded on demand
}

// Vote records that one user voted for one candidate. A user appears in at
// most one vote row platform-wide.
type Vote struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	UserID      string    `json:"user_id"`
	VotedAt     time.Time `json:"voted_at"`
}

// CandidateSummary is the public listing shape: no internal ids, no votes.
type CandidateSummary struct {
	Name  string `json:"name"`
	Party string `json:"party"`
	Slug  string `json:"slug"`
}

// TallyEntry is one row of the public leaderboard.
type TallyEntry struct {
	Party string `json:"party"`
	Count int    `json:"count"`
}
