package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
	"hirecircle/internal/pkg/i18n"
	"hirecircle/internal/service/email"
	"hirecircle/internal/service/listing"
	"hirecircle/internal/service/role"
)

type Service interface {
	Submit(ctx context.Context, session *domain.Session, jobPostID string, input domain.SubmitApplicationInput) (*domain.Application, error)
	ListForApplicant(ctx context.Context, session *domain.Session) ([]domain.ApplicantView, error)
	ListForEmployer(ctx context.Context, session *domain.Session) ([]domain.EmployerView, error)
	Get(ctx context.Context, session *domain.Session, id string) (*domain.Application, error)
	Transition(ctx context.Context, session *domain.Session, id string, next domain.ApplicationStatus) (*domain.Application, error)
	AttachResume(ctx context.Context, session *domain.Session, id string, path string) (*domain.Application, error)
}

// Notifier delivers a feed notification to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string) (*domain.Notification, error)
}

type service struct {
	gw           gateway.Gateway
	roles        role.Resolver
	notifier     Notifier
	emailService email.Service
	listings     listing.Cache
	locale       string
	now          func() time.Time
}

// NewService builds the workflow engine. A nil cache keeps last good
// listings in process memory.
func NewService(gw gateway.Gateway, roles role.Resolver, notifier Notifier, emailService email.Service, listings listing.Cache, locale string) Service {
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	if listings == nil {
		listings = listing.NewMemoryCache()
	}
	return &service{
		gw:           gw,
		roles:        roles,
		notifier:     notifier,
		emailService: emailService,
		listings:     listings,
		locale:       locale,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var newestFirst = []gateway.Order{{Column: "created_at", Desc: true}}

type reviewedApplication struct {
	domain.Application
	JobTitle string `db:"job_post_title"`
}

var jobPostJoin = gateway.Join{
	Collection: gateway.JobPosts,
	As:         "job_post",
	On:         "job_post_id",
	Columns:    []string{"title"},
}

// Submit files an employee's application to an open posting. Only one
// application per posting and applicant is accepted.
func (s *service) Submit(ctx context.Context, session *domain.Session, jobPostID string, input domain.SubmitApplicationInput) (*domain.Application, error) {
	applicant, err := s.roles.Require(ctx, session, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}

	if err := validateSubmission(input); err != nil {
		return nil, err
	}

	var posting domain.JobPosting
	err = s.gw.Query(ctx, gateway.Query{
		Collection: gateway.JobPosts,
		Filters:    []gateway.Filter{gateway.Eq("id", jobPostID)},
	}, &posting)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("job posting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	if posting.Status != domain.PostingOpen {
		return nil, domain.InvalidTransition("job posting is closed")
	}

	var existing []domain.Application
	err = s.gw.Query(ctx, gateway.Query{
		Collection: gateway.Applications,
		Filters: []gateway.Filter{
			gateway.Eq("job_post_id", jobPostID),
			gateway.Eq("applicant_id", applicant.ID),
		},
		Limit: 1,
	}, &existing)
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.Conflict("you have already applied to this job posting")
	}

	now := s.now()
	var app domain.Application
	err = s.gw.Insert(ctx, gateway.Applications, gateway.Row{
		"id":             uuid.NewString(),
		"job_post_id":    jobPostID,
		"applicant_id":   applicant.ID,
		"email":          input.Email,
		"phone":          input.Phone,
		"qualifications": input.Qualifications,
		"experience":     input.Experience,
		"cover_letter":   input.CoverLetter,
		"status":         string(domain.StatusPending),
		"created_at":     now,
		"updated_at":     now,
	}, &app)
	if errors.Is(err, domain.ErrConflict) {
		return nil, domain.Conflict("you have already applied to this job posting")
	}
	if err != nil {
		return nil, fmt.Errorf("submit application: %w", err)
	}

	s.notify(ctx, posting.EmployerID,
		i18n.Translate(s.locale, "APPLICATION_RECEIVED_TITLE"),
		i18n.Format(s.locale, "APPLICATION_RECEIVED_MESSAGE", map[string]string{
			"applicant": applicant.FullName,
			"job":       posting.Title,
		}))

	return &app, nil
}

// ListForApplicant returns the caller's own applications with the posting
// title and the employer's name.
func (s *service) ListForApplicant(ctx context.Context, session *domain.Session) ([]domain.ApplicantView, error) {
	applicant, err := s.roles.Require(ctx, session, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}

	return listing.Read(ctx, s.listings, listing.Key("applicant_applications", applicant.ID), func() ([]domain.ApplicantView, error) {
		var views []domain.ApplicantView
		err := s.gw.Query(ctx, gateway.Query{
			Collection: gateway.Applications,
			Joins: []gateway.Join{
				jobPostJoin,
				{Collection: gateway.Profiles, As: "employer", On: "job_post.employer_id", Columns: []string{"full_name"}},
			},
			Filters: []gateway.Filter{gateway.Eq("applicant_id", applicant.ID)},
			Order:   newestFirst,
		}, &views)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		return views, nil
	})
}

// ListForEmployer returns applications to the caller's postings. The
// ownership filter is part of the join, so other employers' rows are never
// read.
func (s *service) ListForEmployer(ctx context.Context, session *domain.Session) ([]domain.EmployerView, error) {
	employer, err := s.roles.Require(ctx, session, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}

	return listing.Read(ctx, s.listings, listing.Key("employer_applications", employer.ID), func() ([]domain.EmployerView, error) {
		var views []domain.EmployerView
		err := s.gw.Query(ctx, gateway.Query{
			Collection: gateway.Applications,
			Joins: []gateway.Join{
				jobPostJoin,
				{Collection: gateway.Profiles, As: "applicant", On: "applicant_id", Columns: []string{"full_name"}},
			},
			Filters: []gateway.Filter{gateway.Eq("job_post.employer_id", employer.ID)},
			Order:   newestFirst,
		}, &views)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		return views, nil
	})
}

func (s *service) Get(ctx context.Context, session *domain.Session, id string) (*domain.Application, error) {
	profile, err := s.roles.Profile(ctx, session)
	if err != nil {
		return nil, err
	}

	q := gateway.Query{
		Collection: gateway.Applications,
		Filters:    []gateway.Filter{gateway.Eq("id", id)},
	}
	switch profile.UserType {
	case domain.RoleEmployer:
		q.Joins = []gateway.Join{{Collection: gateway.JobPosts, As: "job_post", On: "job_post_id"}}
		q.Filters = append(q.Filters, gateway.Eq("job_post.employer_id", profile.ID))
	default:
		q.Filters = append(q.Filters, gateway.Eq("applicant_id", profile.ID))
	}

	var app domain.Application
	err = s.gw.Query(ctx, q, &app)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("application not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}

	return &app, nil
}

// Transition moves an application forward in review. Only the employer
// owning the posting may do so, and the write only applies if the status is
// still the one that was checked.
func (s *service) Transition(ctx context.Context, session *domain.Session, id string, next domain.ApplicationStatus) (*domain.Application, error) {
	employer, err := s.roles.Require(ctx, session, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}

	if !next.IsValid() {
		return nil, &domain.Error{
			Kind:    domain.ErrValidation,
			Message: "invalid status",
			Fields:  map[string]string{"status": "must be one of in_review, accepted, rejected"},
			Err:     domain.ErrInvalidTransition,
		}
	}

	// The ownership filter is part of the lookup, so a foreign application
	// and a missing one are indistinguishable to the caller.
	var app reviewedApplication
	err = s.gw.Query(ctx, gateway.Query{
		Collection: gateway.Applications,
		Joins:      []gateway.Join{jobPostJoin},
		Filters: []gateway.Filter{
			gateway.Eq("id", id),
			gateway.Eq("job_post.employer_id", employer.ID),
		},
	}, &app)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrForbidden, "only the posting's employer can review this application", domain.ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}

	if !app.Status.CanTransition(next) {
		return nil, domain.InvalidTransition(fmt.Sprintf("cannot move application from %s to %s", app.Status, next))
	}
	if app.Status == next {
		return &app.Application, nil
	}

	var updated domain.Application
	err = s.gw.Update(ctx, gateway.Applications, id, gateway.Row{
		"status":     string(next),
		"updated_at": s.now(),
	}, &updated, gateway.Eq("status", string(app.Status)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.InvalidTransition("application status changed concurrently")
	}
	if err != nil {
		return nil, fmt.Errorf("transition application: %w", err)
	}

	s.announceTransition(ctx, &updated, app.JobTitle)

	return &updated, nil
}

// AttachResume records the stored resume object on the caller's own
// application.
func (s *service) AttachResume(ctx context.Context, session *domain.Session, id string, path string) (*domain.Application, error) {
	applicant, err := s.roles.Require(ctx, session, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}

	var updated domain.Application
	err = s.gw.Update(ctx, gateway.Applications, id, gateway.Row{
		"resume_path": path,
		"updated_at":  s.now(),
	}, &updated, gateway.Eq("applicant_id", applicant.ID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("application not found")
	}
	if err != nil {
		return nil, fmt.Errorf("attach resume: %w", err)
	}

	return &updated, nil
}

func (s *service) announceTransition(ctx context.Context, app *domain.Application, jobTitle string) {
	label := email.StatusLabel(s.locale, app.Status)
	s.notify(ctx, app.ApplicantID,
		i18n.Translate(s.locale, "STATUS_CHANGED_TITLE"),
		i18n.Format(s.locale, "STATUS_CHANGED_MESSAGE", map[string]string{
			"job":    jobTitle,
			"status": label,
		}))

	if s.emailService == nil {
		return
	}

	applicantName := ""
	var applicant domain.Profile
	err := s.gw.Query(ctx, gateway.Query{
		Collection: gateway.Profiles,
		Filters:    []gateway.Filter{gateway.Eq("id", app.ApplicantID)},
	}, &applicant)
	if err == nil {
		applicantName = applicant.FullName
	}

	go func(toEmail, name, title string, status domain.ApplicationStatus) {
		if err := s.emailService.SendStatusChangeEmail(context.Background(), toEmail, name, title, status); err != nil {
			log.Printf("failed to send status change email: %v", err)
		}
	}(app.Email, applicantName, jobTitle, app.Status)
}

// notify is best effort: the application write already succeeded.
func (s *service) notify(ctx context.Context, userID, title, message string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, userID, title, message); err != nil {
		log.Printf("failed to notify user %s: %v", userID, err)
	}
}

func validateSubmission(input domain.SubmitApplicationInput) error {
	fields := make(map[string]string)

	if strings.TrimSpace(input.Email) == "" {
		fields["email"] = "is required"
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		fields["email"] = "is not a valid email address"
	}
	if strings.TrimSpace(input.Phone) == "" {
		fields["phone"] = "is required"
	}
	if strings.TrimSpace(input.Qualifications) == "" {
		fields["qualifications"] = "is required"
	}
	if strings.TrimSpace(input.Experience) == "" {
		fields["experience"] = "is required"
	}
	if strings.TrimSpace(input.CoverLetter) == "" {
		fields["cover_letter"] = "is required"
	}

	if len(fields) > 0 {
		return domain.NewValidationError("invalid application", fields)
	}
	return nil
}
