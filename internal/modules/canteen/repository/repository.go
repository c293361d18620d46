package repository

import (
	"context"
	"net/url"

	"github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
)

// Repository defines the interface for reading the canteen directory.
// The directory is owned by the upstream API; nothing is cached between calls.
type Repository interface {
	ListCanteens(ctx context.Context, filter *domain.Filter) ([]domain.Canteen, error)
	GetCanteen(ctx context.Context, id string) (domain.Canteen, error)
}

// JSONGetter is the part of the HTTP fetcher the repository needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}
