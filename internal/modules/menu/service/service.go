package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	"github.com/reshetovitsme/campus-bot/internal/modules/menu/repository"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/text/cases"
)

var (
	todayTokens    = []string{"heute", "today"}
	tomorrowTokens = []string{"morgen", "tomorrow"}
)

// Service resolves opening days and meals of a canteen
type Service struct {
	repo repository.Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new menu service
func New(repo repository.Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date.
func (s *Service) Today() time.Time {
	return domain.DateOf(s.now())
}

// ListDays returns the days from start on, strictly ascending by date.
// A zero start means today. Entries before start are dropped even if the
// upstream sends them.
func (s *Service) ListDays(ctx context.Context, canteenID string, start time.Time) ([]domain.Day, error) {
	if canteenID == "" {
		return nil, oops.Wrapf(errors.ErrInvalidArgument, "canteen id must not be empty")
	}
	if start.IsZero() {
		start = s.Today()
	} else {
		start = domain.DateOf(start)
	}

	days, err := s.repo.ListDays(ctx, canteenID, start)
	if err != nil {
		return nil, err
	}

	days = lo.Filter(days, func(d domain.Day, _ int) bool {
		return !d.Date.Before(start)
	})
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	days = lo.UniqBy(days, func(d domain.Day) time.Time {
		return d.Date
	})

	return days, nil
}

func (s *Service) GetDay(ctx context.Context, canteenID string, date time.Time) (domain.Day, error) {
	if canteenID == "" {
		return domain.Day{}, oops.Wrapf(errors.ErrInvalidArgument, "canteen id must not be empty")
	}
	return s.repo.GetDay(ctx, canteenID, domain.DateOf(date))
}

// NextOpenDay returns the first open day from today on.
func (s *Service) NextOpenDay(ctx context.Context, canteenID string) (domain.Day, error) {
	return s.NextOpenDayFrom(ctx, canteenID, time.Time{})
}

// NextOpenDayFrom returns the first open day on or after start.
func (s *Service) NextOpenDayFrom(ctx context.Context, canteenID string, start time.Time) (domain.Day, error) {
	days, err := s.ListDays(ctx, canteenID, start)
	if err != nil {
		return domain.Day{}, err
	}

	day, found := lo.Find(days, func(d domain.Day) bool {
		return !d.Closed
	})
	if !found {
		return domain.Day{}, oops.With("canteen_id", canteenID, "days", len(days)).Wrapf(errors.ErrNoOpenDayFound, "canteen closed on every listed day")
	}
	return day, nil
}

// ListMeals returns the meals served on date. Callers check GetDay first: a
// closed canteen should be answered with NextOpenDay instead.
func (s *Service) ListMeals(ctx context.Context, canteenID string, date time.Time) ([]domain.Meal, error) {
	if canteenID == "" {
		return nil, oops.Wrapf(errors.ErrInvalidArgument, "canteen id must not be empty")
	}
	return s.repo.ListMeals(ctx, canteenID, domain.DateOf(date))
}

func (s *Service) GetMeal(ctx context.Context, canteenID string, date time.Time, mealID string) (domain.Meal, error) {
	if canteenID == "" || mealID == "" {
		return domain.Meal{}, oops.With("canteen_id", canteenID, "meal_id", mealID).Wrapf(errors.ErrInvalidArgument, "canteen id and meal id must not be empty")
	}
	return s.repo.GetMeal(ctx, canteenID, domain.DateOf(date), mealID)
}

// ResolveDayToken interprets a user supplied day. Recognized words are
// heute/today and morgen/tomorrow, an empty token means today and anything
// else must be an ISO date. A date before today is returned together with
// ErrDateInPast; the date is still valid in that case.
func ResolveDayToken(token string, today time.Time) (time.Time, error) {
	today = domain.DateOf(today)
	folded := cases.Fold().String(strings.TrimSpace(token))

	switch {
	case folded == "" || lo.Contains(todayTokens, folded):
		return today, nil
	case lo.Contains(tomorrowTokens, folded):
		return today.AddDate(0, 0, 1), nil
	}

	date, err := domain.ParseDate(folded)
	if err != nil {
		return time.Time{}, oops.With("token", token).Wrapf(errors.ErrInvalidDate, "expected heute, morgen or YYYY-MM-DD")
	}
	if date.Before(today) {
		return date, oops.With("date", domain.FormatDate(date)).Wrap(errors.ErrDateInPast)
	}
	return date, nil
}
