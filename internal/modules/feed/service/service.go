package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	canteenDomain "github.com/reshetovitsme/campus-bot/internal/modules/canteen/domain"
	menuDomain "github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type CanteenGetter interface {
	GetCanteen(ctx context.Context, id string) (canteenDomain.Canteen, error)
}

type MealLister interface {
	ListMeals(ctx context.Context, canteenID string, date time.Time) ([]menuDomain.Meal, error)
}

// Service renders the menu of a canteen as a feed
type Service struct {
	canteens CanteenGetter
	meals    MealLister
}

// New creates a new feed service
func New(canteens CanteenGetter, meals MealLister) *Service {
	return &Service{
		canteens: canteens,
		meals:    meals,
	}
}

// GenerateFeed builds a feed with one item per meal served on date.
func (s *Service) GenerateFeed(ctx context.Context, canteenID string, date time.Time, baseURL string) (*feeds.Feed, error) {
	canteen, err := s.canteens.GetCanteen(ctx, canteenID)
	if err != nil {
		return nil, oops.With("canteen_id", canteenID, "context", "canteen not found").Wrap(err)
	}

	meals, err := s.meals.ListMeals(ctx, canteenID, date)
	if err != nil {
		return nil, oops.With("canteen_id", canteenID, "date", menuDomain.FormatDate(date), "context", "failed to get meals").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("%s - Speiseplan %s", canteen.Name, date.Format("02.01.2006")),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/rss/%s", baseURL, canteen.ID)},
		Description: fmt.Sprintf("Speiseplan der %s", canteen.Name),
		Created:     date,
		Updated:     date,
	}
	if canteen.Address != "" {
		feed.Description += ", " + canteen.Address
	}

	feed.Items = lo.Map(meals, func(meal menuDomain.Meal, _ int) *feeds.Item {
		return s.mealToFeedItem(canteen, date, meal)
	})
	return feed, nil
}

func (s *Service) mealToFeedItem(canteen canteenDomain.Canteen, date time.Time, meal menuDomain.Meal) *feeds.Item {
	description := FormatPrices(meal)
	if len(meal.Notes) > 0 {
		description += "\n" + strings.Join(meal.Notes, ", ")
	}

	content := fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p>", html.EscapeString(meal.Category), html.EscapeString(description))
	if meal.HasCustomImage() {
		content += fmt.Sprintf(`<p><img src="%s" alt="%s"/></p>`, html.EscapeString(meal.Image), html.EscapeString(meal.Name))
	}

	item := &feeds.Item{
		Title:       meal.Name,
		Link:        &feeds.Link{Href: meal.URL},
		Description: description,
		Content:     content,
		Created:     date,
		Id:          fmt.Sprintf("%s-%s-%s", canteen.ID, menuDomain.FormatDate(date), meal.ID),
	}
	if meal.HasCustomImage() {
		item.Enclosure = &feeds.Enclosure{Url: meal.Image, Type: "image/jpeg", Length: "0"}
	}
	return item
}

// FormatPrices renders the student and staff prices, e.g. "2.85 € / 4.65 €".
func FormatPrices(meal menuDomain.Meal) string {
	parts := lo.FilterMap([]string{menuDomain.PriceTierStudents, menuDomain.PriceTierStaff}, func(tier string, _ int) (string, bool) {
		p, ok := meal.Price(tier)
		if !ok {
			return "", false
		}
		return p.StringFixed(2) + " €", true
	})
	if len(parts) == 0 {
		return "Preis unbekannt"
	}
	return strings.Join(parts, " / ")
}
