package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
	"hirecircle/internal/service/listing"
	"hirecircle/internal/service/role"
)

type Service interface {
	CreatePosting(ctx context.Context, session *domain.Session, input domain.CreatePostingInput) (*domain.JobPosting, error)
	ListOpenPostings(ctx context.Context, session *domain.Session) ([]domain.PostingWithEmployer, error)
	ListOwnPostings(ctx context.Context, session *domain.Session) ([]domain.JobPosting, error)
	GetPosting(ctx context.Context, session *domain.Session, id string) (*domain.PostingWithEmployer, error)
	ClosePosting(ctx context.Context, session *domain.Session, id string) (*domain.JobPosting, error)
}

type service struct {
	gw       gateway.Gateway
	roles    role.Resolver
	listings listing.Cache
	now      func() time.Time
}

// NewService builds the posting store. A nil cache keeps last good listings
// in process memory.
func NewService(gw gateway.Gateway, roles role.Resolver, listings listing.Cache) Service {
	if listings == nil {
		listings = listing.NewMemoryCache()
	}
	return &service{
		gw:       gw,
		roles:    roles,
		listings: listings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var employerJoin = gateway.Join{
	Collection: gateway.Profiles,
	As:         "employer",
	On:         "employer_id",
	Columns:    []string{"full_name"},
}

var newestFirst = []gateway.Order{{Column: "created_at", Desc: true}}

func (s *service) CreatePosting(ctx context.Context, session *domain.Session, input domain.CreatePostingInput) (*domain.JobPosting, error) {
	employer, err := s.roles.Require(ctx, session, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}

	if err := validatePosting(input); err != nil {
		return nil, err
	}

	var posting domain.JobPosting
	err = s.gw.Insert(ctx, gateway.JobPosts, gateway.Row{
		"id":           uuid.NewString(),
		"employer_id":  employer.ID,
		"title":        input.Title,
		"description":  input.Description,
		"requirements": input.Requirements,
		"status":       string(domain.PostingOpen),
		"created_at":   s.now(),
	}, &posting)
	if err != nil {
		return nil, fmt.Errorf("create posting: %w", err)
	}

	return &posting, nil
}

// ListOpenPostings returns every open posting with its employer's name,
// newest first. The status filter runs in the query, never afterwards. On a
// persistence failure the caller's last good listing is returned with the
// error.
func (s *service) ListOpenPostings(ctx context.Context, session *domain.Session) ([]domain.PostingWithEmployer, error) {
	profile, err := s.roles.Profile(ctx, session)
	if err != nil {
		return nil, err
	}

	return listing.Read(ctx, s.listings, listing.Key("open_postings", profile.ID), func() ([]domain.PostingWithEmployer, error) {
		var postings []domain.PostingWithEmployer
		err := s.gw.Query(ctx, gateway.Query{
			Collection: gateway.JobPosts,
			Joins:      []gateway.Join{employerJoin},
			Filters:    []gateway.Filter{gateway.Eq("status", string(domain.PostingOpen))},
			Order:      newestFirst,
		}, &postings)
		if err != nil {
			return nil, fmt.Errorf("list open postings: %w", err)
		}
		return postings, nil
	})
}

func (s *service) ListOwnPostings(ctx context.Context, session *domain.Session) ([]domain.JobPosting, error) {
	employer, err := s.roles.Require(ctx, session, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}

	return listing.Read(ctx, s.listings, listing.Key("own_postings", employer.ID), func() ([]domain.JobPosting, error) {
		var postings []domain.JobPosting
		err := s.gw.Query(ctx, gateway.Query{
			Collection: gateway.JobPosts,
			Filters:    []gateway.Filter{gateway.Eq("employer_id", employer.ID)},
			Order:      newestFirst,
		}, &postings)
		if err != nil {
			return nil, fmt.Errorf("list own postings: %w", err)
		}
		return postings, nil
	})
}

// GetPosting returns one posting. Employees only see open postings and
// employers only their own.
func (s *service) GetPosting(ctx context.Context, session *domain.Session, id string) (*domain.PostingWithEmployer, error) {
	profile, err := s.roles.Profile(ctx, session)
	if err != nil {
		return nil, err
	}

	filters := []gateway.Filter{gateway.Eq("id", id)}
	switch profile.UserType {
	case domain.RoleEmployer:
		filters = append(filters, gateway.Eq("employer_id", profile.ID))
	default:
		filters = append(filters, gateway.Eq("status", string(domain.PostingOpen)))
	}

	var posting domain.PostingWithEmployer
	err = s.gw.Query(ctx, gateway.Query{
		Collection: gateway.JobPosts,
		Joins:      []gateway.Join{employerJoin},
		Filters:    filters,
	}, &posting)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("job posting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}

	return &posting, nil
}

func (s *service) ClosePosting(ctx context.Context, session *domain.Session, id string) (*domain.JobPosting, error) {
	employer, err := s.roles.Require(ctx, session, domain.RoleEmployer)
	if err != nil {
		return nil, err
	}

	var current domain.JobPosting
	err = s.gw.Query(ctx, gateway.Query{
		Collection: gateway.JobPosts,
		Filters:    []gateway.Filter{gateway.Eq("id", id)},
	}, &current)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("job posting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}

	if current.EmployerID != employer.ID {
		return nil, domain.Forbidden("only the posting's employer can close it")
	}
	if current.Status != domain.PostingOpen {
		return nil, domain.InvalidTransition("job posting is already closed")
	}

	var closed domain.JobPosting
	err = s.gw.Update(ctx, gateway.JobPosts, id, gateway.Row{"status": string(domain.PostingClosed)}, &closed,
		gateway.Eq("status", string(domain.PostingOpen)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.InvalidTransition("job posting is already closed")
	}
	if err != nil {
		return nil, fmt.Errorf("close posting: %w", err)
	}

	return &closed, nil
}

func validatePosting(input domain.CreatePostingInput) error {
	fields := make(map[string]string)
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		fields["description"] = "is required"
	}
	if strings.TrimSpace(input.Requirements) == "" {
		fields["requirements"] = "is required"
	}

	if len(fields) > 0 {
		return domain.NewValidationError("invalid job posting", fields)
	}
	return nil
}
