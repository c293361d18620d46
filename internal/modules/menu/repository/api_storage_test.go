package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reshetovitsme/campus-bot/internal/modules/menu/domain"
	"github.com/reshetovitsme/campus-bot/internal/shared/errors"
	"github.com/reshetovitsme/campus-bot/internal/shared/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mealsJSON = `[
	{
		"id": 271828,
		"name": "Hausgemachte Kartoffelpuffer mit Apfelmus",
		"notes": ["vegetarisch", "enthält Glutenhaltiges Getreide"],
		"prices": {"Studierende": 2.85, "Bedienstete": 4.65, "Gäste": null},
		"category": "Angebot 1",
		"image": "//bilderspeiseplan.studentenwerk-dresden.de/m4/202405/271828.jpg",
		"url": "https://www.studentenwerk-dresden.de/mensen/speiseplan/details-271828.html"
	},
	{
		"id": 271829,
		"name": "Tagessuppe",
		"notes": null,
		"prices": {"Studierende": "1.20", "Bedienstete": "2.10"},
		"category": "Suppe",
		"image": "",
		"url": ""
	}
]`

func newTestStorage(t *testing.T, handler http.HandlerFunc) Repository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAPIStorage(server.URL, fetcher.New(fetcher.Options{Timeout: 2 * time.Second}))
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAPIStorage_ListDays(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/canteens/4/days", r.URL.Path)
		assert.Equal(t, "2024-05-01", r.URL.Query().Get("start"))
		_, _ = w.Write([]byte(`[
			{"date": "2024-05-01", "closed": true},
			{"day": "2024-05-02", "closed": false},
			{"date": "not-a-date", "closed": false}
		]`))
	})

	days, err := storage.ListDays(context.Background(), "4", date("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, []domain.Day{
		{Date: date("2024-05-01"), Closed: true},
		{Date: date("2024-05-02"), Closed: false},
	}, days)
}

func TestAPIStorage_GetDay(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/canteens/4/days/2024-05-01":
			_, _ = w.Write([]byte(`{"day": "2024-05-01", "closed": true}`))
		case "/canteens/4/days/2024-05-04":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})

	day, err := storage.GetDay(context.Background(), "4", date("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, domain.Day{Date: date("2024-05-01"), Closed: true}, day)

	_, err = storage.GetDay(context.Background(), "4", date("2024-05-04"))
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = storage.GetDay(context.Background(), "4", date("2024-05-05"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestAPIStorage_ListMeals(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/canteens/4/days/2024-05-02/meals", r.URL.Path)
		_, _ = w.Write([]byte(mealsJSON))
	})

	meals, err := storage.ListMeals(context.Background(), "4", date("2024-05-02"))
	require.NoError(t, err)
	require.Len(t, meals, 2)

	puffer := meals[0]
	assert.Equal(t, "271828", puffer.ID)
	assert.Equal(t, "Angebot 1", puffer.Category)
	assert.Equal(t, []string{"vegetarisch", "enthält Glutenhaltiges Getreide"}, puffer.Notes)
	assert.Equal(t, "https://bilderspeiseplan.studentenwerk-dresden.de/m4/202405/271828.jpg", puffer.Image)
	assert.Len(t, puffer.Prices, 2, "null prices are dropped")

	students, ok := puffer.Price(domain.PriceTierStudents)
	require.True(t, ok)
	assert.Equal(t, "2.85", students.StringFixed(2))

	soup := meals[1]
	assert.Empty(t, soup.Image)
	assert.Equal(t, []string{}, soup.Notes)
	staff, ok := soup.Price(domain.PriceTierStaff)
	require.True(t, ok)
	assert.Equal(t, "2.10", staff.StringFixed(2))
}

func TestAPIStorage_GetMeal(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/canteens/4/days/2024-05-02/meals/271828" {
			_, _ = w.Write([]byte(`{"id": 271828, "name": "Kartoffelpuffer", "image": "//static.example/x.jpg", "prices": {}}`))
			return
		}
		http.NotFound(w, r)
	})

	meal, err := storage.GetMeal(context.Background(), "4", date("2024-05-02"), "271828")
	require.NoError(t, err)
	assert.Equal(t, "https://static.example/x.jpg", meal.Image)

	_, err = storage.GetMeal(context.Background(), "4", date("2024-05-02"), "1")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestAPIStorage_Malformed(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"broken"`))
	})

	_, err := storage.ListMeals(context.Background(), "4", date("2024-05-02"))
	assert.ErrorIs(t, err, errors.ErrUpstreamMalformed)
}

func TestAPIStorage_ListDays_AllMalformed(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date": "01.05.2024", "closed": false}, {"closed": true}]`))
	})

	_, err := storage.ListDays(context.Background(), "4", date("2024-05-01"))
	assert.ErrorIs(t, err, errors.ErrUpstreamMalformed)
}
