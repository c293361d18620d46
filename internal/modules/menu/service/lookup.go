package service

import (
	"context"
	stderrors "errors"
	"log/slog"

	canteenDomain "github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	"github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/samber/oops"
)

// CanteenResolver turns a free-text name into a canteen.
type CanteenResolver interface {
	ResolveByName(ctx context.Context, query string) (canteenDomain.Canteen, error)
}

// Lookup answers "what does canteen X serve on day Y".
type Lookup struct {
	canteens CanteenResolver
	menu     *Service
}

func NewLookup(canteens CanteenResolver, menu *Service) *Lookup {
	return &Lookup{canteens: canteens, menu: menu}
}

// Resolve resolves the day token first, then the canteen, then checks whether
// the canteen is open on that day. Meals are fetched only for an open day; a
// closed day yields the next open day instead.
func (l *Lookup) Resolve(ctx context.Context, canteenQuery, dayToken string) (*domain.Resolution, error) {
	date, err := ResolveDayToken(dayToken, l.menu.Today())
	dateInPast := stderrors.Is(err, errors.ErrDateInPast)
	if err != nil && !dateInPast {
		return nil, err
	}
	if dateInPast {
		slog.Warn("Given date is in the past", "date", domain.FormatDate(date))
	}

	canteen, err := l.canteens.ResolveByName(ctx, canteenQuery)
	if err != nil {
		return nil, err
	}

	day, err := l.menu.GetDay(ctx, canteen.ID, date)
	if err != nil {
		return nil, oops.With("canteen", canteen.Name).Wrap(err)
	}

	res := &domain.Resolution{
		Canteen:    canteen,
		Date:       date,
		DateInPast: dateInPast,
	}

	if day.Closed {
		next, err := l.menu.NextOpenDayFrom(ctx, canteen.ID, date)
		if err != nil {
			return nil, oops.With("canteen", canteen.Name).Wrap(err)
		}
		res.State = domain.ResolutionStateRedirectedToNextOpenDay
		res.NextOpen = &next
		return res, nil
	}

	meals, err := l.menu.ListMeals(ctx, canteen.ID, date)
	if err != nil {
		return nil, oops.With("canteen", canteen.Name).Wrap(err)
	}
	res.State = domain.ResolutionStateMealsFetched
	res.Meals = meals
	return res, nil
}
