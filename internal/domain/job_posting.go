package domain

import "time"

type PostingStatus string

const (
	PostingOpen   PostingStatus = "open"
	PostingClosed PostingStatus = "closed"
)

type JobPosting struct {
	ID           string        `json:"id" db:"id"`
	EmployerID   string        `json:"employer_id" db:"employer_id"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description" db:"description"`
	Requirements string        `json:"requirements" db:"requirements"`
	Status       PostingStatus `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// PostingWithEmployer is the employee-facing listing row.
type PostingWithEmployer struct {
	JobPosting
	EmployerName string `json:"employer_name" db:"employer_full_name"`
}

type CreatePostingInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}
