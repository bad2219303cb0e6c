package domain

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusInReview ApplicationStatus = "in_review"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition reports whether an employer may move an application from s to
// next. Progress never decreases and terminal states have no exits. Moving an
// in-review application to in_review again is allowed and changes nothing.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInReview || next == StatusAccepted || next == StatusRejected
	case StatusInReview:
		return next == StatusInReview || next == StatusAccepted || next == StatusRejected
	default:
		return false
	}
}

type Application struct {
	ID             string            `json:"id" db:"id"`
	JobPostID      string            `json:"job_post_id" db:"job_post_id"`
	ApplicantID    string            `json:"applicant_id" db:"applicant_id"`
	Email          string            `json:"email" db:"email"`
	Phone          string            `json:"phone" db:"phone"`
	Qualifications string            `json:"qualifications" db:"qualifications"`
	Experience     string            `json:"experience" db:"experience"`
	CoverLetter    string            `json:"cover_letter" db:"cover_letter"`
	Status         ApplicationStatus `json:"status" db:"status"`
	ResumePath     *string           `json:"-" db:"resume_path"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

func (a *Application) HasResume() bool {
	return a.ResumePath != nil && *a.ResumePath != ""
}

// ApplicantView is what an employee sees for their own applications.
type ApplicantView struct {
	Application
	JobTitle     string `json:"job_title" db:"job_post_title"`
	EmployerName string `json:"employer_name" db:"employer_full_name"`
}

// EmployerView is what an employer sees for applications to its postings.
type EmployerView struct {
	Application
	JobTitle      string `json:"job_title" db:"job_post_title"`
	ApplicantName string `json:"applicant_name" db:"applicant_full_name"`
}

type SubmitApplicationInput struct {
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Qualifications string `json:"qualifications"`
	Experience     string `json:"experience"`
	CoverLetter    string `json:"cover_letter"`
}

type TransitionInput struct {
	Status ApplicationStatus `json:"status"`
}
