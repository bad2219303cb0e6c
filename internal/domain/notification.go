package domain

import "time"

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FeedSnapshot is one loaded window of a user's feed. UnreadCount is always
// derived from Items and never maintained separately.
type FeedSnapshot struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unread_count"`
	FetchedAt   time.Time      `json:"fetched_at"`
	Stale       bool           `json:"stale"`
}

func NewFeedSnapshot(items []Notification, fetchedAt time.Time) FeedSnapshot {
	if items == nil {
		items = []Notification{}
	}
	return FeedSnapshot{
		Items:       items,
		UnreadCount: CountUnread(items),
		FetchedAt:   fetchedAt,
	}
}

func CountUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}
