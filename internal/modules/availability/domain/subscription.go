package domain

import "time"

// Subscription is a pending "notify me when the target is back" request.
type Subscription struct {
	ID        string            `json:"id"`
	ChatID    int64             `json:"chat_id"`
	Target    string            `json:"target"`
	Interval  time.Duration     `json:"interval"`
	CreatedAt time.Time         `json:"created_at"`
	State     SubscriptionState `json:"state"`
	// RetiredAt is zero while the subscription is active.
	RetiredAt time.Time `json:"retired_at,omitempty"`
}

func (s *Subscription) IsActive() bool {
	return s.State == SubscriptionStateActive
}
