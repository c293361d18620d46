package repository

import (
	"github.com/reshetovitsme/campus-bot/internal/modules/availability/domain"
)

// Repository holds the pending subscriptions.
// Retire is the only transition out of the active state; it succeeds for
// exactly one caller per subscription.
type Repository interface {
	Save(sub *domain.Subscription) error
	Get(id string) (*domain.Subscription, error)
	ListActive(chatID int64) ([]*domain.Subscription, error)
	Retire(id string) (bool, error)
}
