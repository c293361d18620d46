package repository

import (
	"context"
	"net/url"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
)

// Repository defines the interface for reading opening days and meals of a canteen
type Repository interface {
	ListDays(ctx context.Context, canteenID string, start time.Time) ([]domain.Day, error)
	GetDay(ctx context.Context, canteenID string, date time.Time) (domain.Day, error)
	ListMeals(ctx context.Context, canteenID string, date time.Time) ([]domain.Meal, error)
	GetMeal(ctx context.Context, canteenID string, date time.Time, mealID string) (domain.Meal, error)
}

// JSONGetter is the part of the HTTP fetcher the repository needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}
