package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirecircle/internal/domain"
	"hirecircle/internal/gateway"
)

// FeedWindow is how many of the newest notifications one fetch loads.
const FeedWindow = 50

type Service interface {
	Fetch(ctx context.Context, session *domain.Session) (*domain.FeedSnapshot, error)
	MarkRead(ctx context.Context, session *domain.Session, id string) (*domain.FeedSnapshot, error)
	MarkAllRead(ctx context.Context, session *domain.Session) (*domain.FeedSnapshot, error)
	Notify(ctx context.Context, userID, title, message string) (*domain.Notification, error)
}

type service struct {
	gw        gateway.Gateway
	snapshots SnapshotStore
	now       func() time.Time
}

func NewService(gw gateway.Gateway, snapshots SnapshotStore) Service {
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	return &service{
		gw:        gw,
		snapshots: snapshots,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Fetch loads the caller's newest notifications and derives the unread
// count from the same rows. When the read fails the last good snapshot is
// returned marked stale, together with the error.
func (s *service) Fetch(ctx context.Context, session *domain.Session) (*domain.FeedSnapshot, error) {
	if session == nil || session.UserID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "no session", nil)
	}

	var items []domain.Notification
	err := s.gw.Query(ctx, gateway.Query{
		Collection: gateway.Notifications,
		Filters:    []gateway.Filter{gateway.Eq("user_id", session.UserID)},
		Order:      []gateway.Order{{Column: "created_at", Desc: true}},
		Limit:      FeedWindow,
	}, &items)

	// A late response for an abandoned request must not touch the snapshot.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if err != nil {
		err = fmt.Errorf("fetch notifications: %w", err)
		if !errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}

		last, loadErr := s.snapshots.Load(ctx, session.UserID)
		if loadErr != nil {
			log.Printf("failed to load feed snapshot for %s: %v", session.UserID, loadErr)
		}
		if last == nil {
			return nil, err
		}
		last.Stale = true
		return last, err
	}

	snapshot := domain.NewFeedSnapshot(items, s.now())
	if err := s.snapshots.Save(ctx, session.UserID, snapshot); err != nil {
		log.Printf("failed to save feed snapshot for %s: %v", session.UserID, err)
	}

	return &snapshot, nil
}

// MarkRead sets read on one of the caller's notifications and returns the
// re-fetched feed. Marking an already read notification changes nothing.
func (s *service) MarkRead(ctx context.Context, session *domain.Session, id string) (*domain.FeedSnapshot, error) {
	if session == nil || session.UserID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "no session", nil)
	}

	var updated domain.Notification
	err := s.gw.Update(ctx, gateway.Notifications, id, gateway.Row{"read": true}, &updated,
		gateway.Eq("user_id", session.UserID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("notification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	snapshot, err := s.Fetch(ctx, session)
	s.reflectRead(ctx, session.UserID, snapshot, func(n domain.Notification) bool { return n.ID == id })
	return snapshot, err
}

func (s *service) MarkAllRead(ctx context.Context, session *domain.Session) (*domain.FeedSnapshot, error) {
	if session == nil || session.UserID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "no session", nil)
	}

	var unread []domain.Notification
	err := s.gw.Query(ctx, gateway.Query{
		Collection: gateway.Notifications,
		Filters: []gateway.Filter{
			gateway.Eq("user_id", session.UserID),
			gateway.Eq("read", false),
		},
	}, &unread)
	if err != nil {
		return nil, fmt.Errorf("list unread notifications: %w", err)
	}

	for _, n := range unread {
		var updated domain.Notification
		err := s.gw.Update(ctx, gateway.Notifications, n.ID, gateway.Row{"read": true}, &updated,
			gateway.Eq("user_id", session.UserID))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("mark notification read: %w", err)
		}
	}

	snapshot, err := s.Fetch(ctx, session)
	s.reflectRead(ctx, session.UserID, snapshot, func(domain.Notification) bool { return true })
	return snapshot, err
}

// reflectRead applies a committed read to a stale snapshot and remembers
// the corrected copy.
func (s *service) reflectRead(ctx context.Context, userID string, snapshot *domain.FeedSnapshot, match func(domain.Notification) bool) {
	if snapshot == nil || !snapshot.Stale {
		return
	}

	changed := false
	for i := range snapshot.Items {
		if !snapshot.Items[i].Read && match(snapshot.Items[i]) {
			snapshot.Items[i].Read = true
			changed = true
		}
	}
	if !changed {
		return
	}
	snapshot.UnreadCount = domain.CountUnread(snapshot.Items)

	saved := *snapshot
	saved.Stale = false
	if err := s.snapshots.Save(ctx, userID, saved); err != nil {
		log.Printf("failed to save feed snapshot for %s: %v", userID, err)
	}
}

func (s *service) Notify(ctx context.Context, userID, title, message string) (*domain.Notification, error) {
	fields := make(map[string]string)
	if userID == "" {
		fields["user_id"] = "is required"
	}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "is required"
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError("invalid notification", fields)
	}

	var notif domain.Notification
	err := s.gw.Insert(ctx, gateway.Notifications, gateway.Row{
		"id":         uuid.NewString(),
		"user_id":    userID,
		"title":      title,
		"message":    message,
		"read":       false,
		"created_at": s.now(),
	}, &notif)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	return &notif, nil
}
