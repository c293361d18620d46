package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/reshetovitsme/campus-bot/internal/shared/fetcher"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/shopspring/decimal"
)

// APIStorage implements Repository on top of an OpenMensa v2 compatible API
type APIStorage struct {
	baseURL string
	client  JSONGetter
}

func NewAPIStorage(baseURL string, client JSONGetter) Repository {
	return &APIStorage{baseURL: baseURL, client: client}
}

// dayDTO covers both shapes of a day record: the list endpoint names the
// date "date", the single-day endpoint names it "day".
type dayDTO struct {
	Date   string `json:"date"`
	Day    string `json:"day"`
	Closed bool   `json:"closed"`
}

func (d dayDTO) toDomain() (domain.Day, error) {
	raw := d.Date
	if raw == "" {
		raw = d.Day
	}
	if raw == "" {
		return domain.Day{}, oops.Wrapf(errors.ErrNotFound, "day record without date")
	}

	date, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Day{}, oops.With("date", raw).Wrapf(errors.ErrUpstreamMalformed, "%v", err)
	}
	return domain.Day{Date: date, Closed: d.Closed}, nil
}

type mealDTO struct {
	ID       fetcher.LooseID             `json:"id"`
	Name     string                      `json:"name"`
	Notes    []string                    `json:"notes"`
	Prices   map[string]*decimal.Decimal `json:"prices"`
	Category string                      `json:"category"`
	URL      string                      `json:"url"`
	Image    string                      `json:"image"`
}

func (d mealDTO) toDomain() domain.Meal {
	prices := make(map[string]decimal.Decimal, len(d.Prices))
	for tier, amount := range d.Prices {
		if amount != nil {
			prices[tier] = *amount
		}
	}

	notes := d.Notes
	if notes == nil {
		notes = []string{}
	}

	return domain.Meal{
		ID:       string(d.ID),
		Name:     d.Name,
		Category: d.Category,
		Notes:    notes,
		Prices:   prices,
		URL:      d.URL,
		Image:    domain.NormalizeImageURL(d.Image),
	}
}

func (s *APIStorage) daysURL(canteenID string) string {
	return fmt.Sprintf("%s/canteens/%s/days", s.baseURL, url.PathEscape(canteenID))
}

func (s *APIStorage) mealsURL(canteenID string, date time.Time) string {
	return fmt.Sprintf("%s/%s/meals", s.daysURL(canteenID), domain.FormatDate(date))
}

// ListDays returns the days as sent upstream. Ordering and the start bound are
// enforced by the service.
func (s *APIStorage) ListDays(ctx context.Context, canteenID string, start time.Time) ([]domain.Day, error) {
	var dtos []dayDTO
	query := url.Values{"start": {domain.FormatDate(start)}}
	if err := s.client.GetJSON(ctx, s.daysURL(canteenID), query, &dtos); err != nil {
		return nil, notFoundOr(err, "canteen_id", canteenID)
	}

	days := lo.FilterMap(dtos, func(dto dayDTO, _ int) (domain.Day, bool) {
		day, err := dto.toDomain()
		if err != nil {
			slog.Warn("Skipping malformed day", "canteen_id", canteenID, "error", err)
			return domain.Day{}, false
		}
		return day, true
	})
	if len(dtos) > 0 && len(days) == 0 {
		return nil, oops.With("canteen_id", canteenID, "skipped", len(dtos)).Wrapf(errors.ErrUpstreamMalformed, "no usable day in listing")
	}
	return days, nil
}

func (s *APIStorage) GetDay(ctx context.Context, canteenID string, date time.Time) (domain.Day, error) {
	var dto dayDTO
	dayURL := s.daysURL(canteenID) + "/" + domain.FormatDate(date)
	if err := s.client.GetJSON(ctx, dayURL, nil, &dto); err != nil {
		return domain.Day{}, notFoundOr(err, "canteen_id", canteenID, "date", domain.FormatDate(date))
	}

	day, err := dto.toDomain()
	if err != nil {
		return domain.Day{}, oops.With("canteen_id", canteenID, "date", domain.FormatDate(date)).Wrap(err)
	}
	return day, nil
}

func (s *APIStorage) ListMeals(ctx context.Context, canteenID string, date time.Time) ([]domain.Meal, error) {
	var dtos []mealDTO
	if err := s.client.GetJSON(ctx, s.mealsURL(canteenID, date), nil, &dtos); err != nil {
		return nil, notFoundOr(err, "canteen_id", canteenID, "date", domain.FormatDate(date))
	}

	return lo.Map(dtos, func(dto mealDTO, _ int) domain.Meal {
		return dto.toDomain()
	}), nil
}

func (s *APIStorage) GetMeal(ctx context.Context, canteenID string, date time.Time, mealID string) (domain.Meal, error) {
	var dto mealDTO
	mealURL := s.mealsURL(canteenID, date) + "/" + url.PathEscape(mealID)
	if err := s.client.GetJSON(ctx, mealURL, nil, &dto); err != nil {
		return domain.Meal{}, notFoundOr(err, "canteen_id", canteenID, "date", domain.FormatDate(date), "meal_id", mealID)
	}
	if dto.ID == "" {
		return domain.Meal{}, oops.With("meal_id", mealID).Wrapf(errors.ErrNotFound, "empty meal record")
	}
	return dto.toDomain(), nil
}

// notFoundOr maps a 404 from upstream to ErrNotFound and keeps any other error.
func notFoundOr(err error, kv ...any) error {
	if fetcher.IsStatus(err, http.StatusNotFound) {
		return oops.With(kv...).Wrapf(errors.ErrNotFound, "no upstream record")
	}
	return oops.With(kv...).Wrap(err)
}
